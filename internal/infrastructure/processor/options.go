package processor

type Option func(*ImageProcessor)

// Size sets the bounding box thumbnails are fitted into.
func Size(width, height int) Option {
	return func(p *ImageProcessor) {
		if width > 0 {
			p.width = width
		}
		if height > 0 {
			p.height = height
		}
	}
}
