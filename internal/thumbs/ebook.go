package thumbs

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"image"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/harborview/harborview/internal/fault"
)

// EPUB package structures, reduced to what cover discovery needs.
type container struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type opfPackage struct {
	Metadata struct {
		Metas []struct {
			Name    string `xml:"name,attr"`
			Content string `xml:"content,attr"`
		} `xml:"meta"`
	} `xml:"metadata"`
	Manifest struct {
		Items []struct {
			ID         string `xml:"id,attr"`
			Href       string `xml:"href,attr"`
			MediaType  string `xml:"media-type,attr"`
			Properties string `xml:"properties,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
}

// ebookThumb extracts an embedded cover image from an EPUB or CBZ archive
// and runs it through the raster pipeline. For EPUB the candidate order is
// the package manifest's declared cover item, conventional cover filenames,
// then any image entry whose name contains "cover". CBZ archives use their
// first image in name order. The first decodable candidate wins.
func (g *Generator) ebookThumb(source string, size int) ([]byte, error) {
	archive, err := zip.OpenReader(source)
	if err != nil {
		return nil, fmt.Errorf("open ebook %s: %w", source, err)
	}
	defer archive.Close()

	var candidates []string
	if strings.EqualFold(path.Ext(source), ".cbz") {
		candidates = pageCandidates(archive)
	} else {
		candidates = coverCandidates(archive)
	}

	for _, name := range candidates {
		f := findEntry(archive, name)
		if f == nil {
			continue
		}
		img, err := decodeEntry(f)
		if err != nil {
			continue
		}
		return g.encode(img, size)
	}
	return nil, fmt.Errorf("no decodable cover in %s: %w", source, fault.ErrUnsupported)
}

// pageCandidates lists a comic archive's image entries sorted by name, so
// the first page comes out first.
func pageCandidates(archive *zip.ReadCloser) []string {
	var pages []string
	for _, f := range archive.File {
		if isImageEntry(f.Name) {
			pages = append(pages, f.Name)
		}
	}
	sort.Strings(pages)
	return pages
}

func coverCandidates(archive *zip.ReadCloser) []string {
	var candidates []string

	if href := manifestCover(archive); href != "" {
		candidates = append(candidates, href)
	}

	candidates = append(candidates,
		"cover.jpg", "cover.jpeg", "cover.png",
		"OEBPS/cover.jpg", "OEBPS/cover.jpeg", "OEBPS/cover.png",
	)

	for _, f := range archive.File {
		lower := strings.ToLower(f.Name)
		if strings.Contains(lower, "cover") && isImageEntry(lower) {
			candidates = append(candidates, f.Name)
		}
	}
	return candidates
}

// manifestCover parses META-INF/container.xml and the OPF package document
// to find the declared cover item's href, "" if none is declared.
func manifestCover(archive *zip.ReadCloser) string {
	var c container
	if err := unmarshalEntry(archive, "META-INF/container.xml", &c); err != nil {
		return ""
	}
	if len(c.Rootfiles) == 0 {
		return ""
	}
	opfPath := c.Rootfiles[0].FullPath

	var pkg opfPackage
	if err := unmarshalEntry(archive, opfPath, &pkg); err != nil {
		return ""
	}

	// EPUB3 marks the item directly; EPUB2 points at it via a meta element.
	coverID := ""
	for _, item := range pkg.Manifest.Items {
		if strings.Contains(item.Properties, "cover-image") {
			return resolveHref(opfPath, item.Href)
		}
	}
	for _, meta := range pkg.Metadata.Metas {
		if strings.EqualFold(meta.Name, "cover") {
			coverID = meta.Content
		}
	}
	if coverID == "" {
		return ""
	}
	for _, item := range pkg.Manifest.Items {
		if item.ID == coverID && strings.HasPrefix(item.MediaType, "image/") {
			return resolveHref(opfPath, item.Href)
		}
	}
	return ""
}

// resolveHref resolves a manifest href relative to the OPF document's dir.
func resolveHref(opfPath, href string) string {
	return path.Join(path.Dir(opfPath), href)
}

func unmarshalEntry(archive *zip.ReadCloser, name string, v any) error {
	f := findEntry(archive, name)
	if f == nil {
		return fmt.Errorf("%s: %w", name, fault.ErrNotFound)
	}
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return xml.Unmarshal(data, v)
}

func findEntry(archive *zip.ReadCloser, name string) *zip.File {
	for _, f := range archive.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func decodeEntry(f *zip.File) (image.Image, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return imaging.Decode(r)
}

func isImageEntry(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}
