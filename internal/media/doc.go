// Package media holds the image operations behind a resize task: decoding
// with EXIF orientation, flattening transparency onto white, the three
// resize policies, and encoding to the output format.
//
// Resize policies:
//   - Stretch: scale to the exact target size, ignoring aspect ratio
//   - KeepRatio: shrink to fit, centre on a white canvas
//   - Crop: scale to cover, centre-crop the overflow
//
// All policies return an image of exactly the requested size. JPEG, PNG,
// BMP and TIFF are encoded with imaging; WebP output goes through libvips
// and requires InitVips.
package media
