package enrichment

import "time"

type Option func(*UseCase)

func CaptionTimeout(timeout time.Duration) Option {
	return func(uc *UseCase) {
		uc.captionTimeout = timeout
	}
}

func ThumbnailTimeout(timeout time.Duration) Option {
	return func(uc *UseCase) {
		uc.thumbnailTimeout = timeout
	}
}
