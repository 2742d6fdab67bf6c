package ingest

import "time"

type Option func(*UseCase)

// Clock replaces time.Now, mostly for tests.
func Clock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// UniqueKeys prefixes every key with a random token so equal filenames never
// collide. Off by default: a re-upload replaces the earlier one.
func UniqueKeys(enabled bool) Option {
	return func(uc *UseCase) {
		uc.uniqueKeys = enabled
	}
}

func BlobWriteTimeout(timeout time.Duration) Option {
	return func(uc *UseCase) {
		uc.blobWriteTimeout = timeout
	}
}

func MaxFileSize(size int64) Option {
	return func(uc *UseCase) {
		uc.maxFileSize = size
	}
}
