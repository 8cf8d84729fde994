package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// PPTXParser handles .pptx files. Units are slides.
type PPTXParser struct{}

func (p *PPTXParser) SupportedFormats() []string { return []string{"pptx"} }

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func (p *PPTXParser) Parse(ctx context.Context, path string, opts Options) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("opening PPTX: %w", err)
	}
	defer r.Close()

	// Collect slide files keyed by slide number (ppt/slides/slide1.xml, ...).
	slideFiles := make(map[int]*zip.File)
	for _, f := range r.File {
		m := slideNameRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		if num, err := strconv.Atoi(m[1]); err == nil && num > 0 {
			slideFiles[num] = f
		}
	}
	if len(slideFiles) == 0 {
		return "", fmt.Errorf("no slides found in PPTX")
	}

	nums := make([]int, 0, len(slideFiles))
	for n := range slideFiles {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	slides := make([]string, 0, len(nums))
	for _, num := range nums {
		rc, err := slideFiles[num].Open()
		if err != nil {
			slides = append(slides, "")
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			slides = append(slides, "")
			continue
		}
		slides = append(slides, slideText(data))
	}

	kept, err := selectUnits(slides, opts, "slide")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Join(kept, "\n")), nil
}

// slideText extracts all DrawingML text runs (<a:t>) from one slide,
// one line per run.
func slideText(data []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var b strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return strings.TrimSpace(b.String())
}
