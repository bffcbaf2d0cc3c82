// Package upload handles file parts of multipart form submissions.
//
// Parts below the configured memory threshold are handed to action
// scripts inline; larger parts are written through a Store first and
// the script receives the stored location instead. Two stores ship
// with the server: DiskStore for local directories and S3Store for an
// S3 bucket.
package upload
