// Package s3 uploads downloaded artifacts (configuration tarballs and built
// images) to an S3-compatible bucket.
//
// The sink is optional: it is only created when the configuration names a
// bucket. Any S3-compatible endpoint works; path-style addressing can be
// forced for services that do not support virtual-hosted buckets.
package s3
