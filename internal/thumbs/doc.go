// Package thumbs produces bounded-size JPEG previews for media files:
// raster and animated images, SVGs, EPUB covers, HEIF stills and video
// frames. Generation is a pure function of (file, target size); Service
// adds the shared artifact cache on top.
package thumbs
