package motion

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// pgmImage is a decoded PGM P5 greyscale image.
type pgmImage struct {
	width, height int
	maxval        int
	pixels        []byte
}

// LoadPGMMask reads a PGM (P5) mask file and rescales it to width x height
// using nearest-neighbour sampling. Values are scaled by value*255/maxval
// so any maxval (not just 255) produces a 0..255 mask.
func LoadPGMMask(path string, width, height int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("motion: open mask %s: %w", path, err)
	}
	defer f.Close()

	img, err := decodePGM(f)
	if err != nil {
		return nil, fmt.Errorf("motion: decode mask %s: %w", path, err)
	}

	return rescaleNearest(img, width, height), nil
}

func decodePGM(r io.Reader) (*pgmImage, error) {
	br := bufio.NewReader(r)

	magic, err := readToken(br)
	if err != nil {
		return nil, err
	}
	if magic != "P5" {
		return nil, fmt.Errorf("unsupported PGM magic %q (only P5 is supported)", magic)
	}

	w, err := readIntToken(br)
	if err != nil {
		return nil, err
	}
	h, err := readIntToken(br)
	if err != nil {
		return nil, err
	}
	maxval, err := readIntToken(br)
	if err != nil {
		return nil, err
	}
	if maxval <= 0 || maxval > 65535 {
		return nil, fmt.Errorf("invalid PGM maxval %d", maxval)
	}

	bytesPerSample := 1
	if maxval > 255 {
		bytesPerSample = 2
	}

	raw := make([]byte, w*h*bytesPerSample)
	if _, err := io.ReadFull(br, raw); err != nil {
		return nil, fmt.Errorf("read PGM pixel data: %w", err)
	}

	pixels := make([]byte, w*h)
	for i := 0; i < w*h; i++ {
		var v int
		if bytesPerSample == 1 {
			v = int(raw[i])
		} else {
			v = int(raw[2*i])<<8 | int(raw[2*i+1])
		}
		pixels[i] = byte(v * 255 / maxval)
	}

	return &pgmImage{width: w, height: h, maxval: maxval, pixels: pixels}, nil
}

// readToken reads a whitespace-delimited token, skipping '#' comment lines,
// matching the PGM "plain header" grammar.
func readToken(br *bufio.Reader) (string, error) {
	var b []byte
	for {
		c, err := br.ReadByte()
		if err != nil {
			return "", err
		}
		if c == '#' {
			for {
				c, err := br.ReadByte()
				if err != nil {
					return "", err
				}
				if c == '\n' {
					break
				}
			}
			continue
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			if len(b) == 0 {
				continue
			}
			break
		}
		b = append(b, c)
	}
	return string(b), nil
}

func readIntToken(br *bufio.Reader) (int, error) {
	tok, err := readToken(br)
	if err != nil {
		return 0, err
	}
	var v int
	if _, err := fmt.Sscanf(tok, "%d", &v); err != nil {
		return 0, fmt.Errorf("invalid integer token %q: %w", tok, err)
	}
	return v, nil
}

// rescaleNearest resizes src to width x height using nearest-neighbour
// sampling, matching the mask-loading rule used elsewhere.
func rescaleNearest(src *pgmImage, width, height int) []byte {
	out := make([]byte, width*height)
	if src.width == width && src.height == height {
		copy(out, src.pixels)
		return out
	}
	for y := 0; y < height; y++ {
		sy := y * src.height / height
		for x := 0; x < width; x++ {
			sx := x * src.width / width
			out[y*width+x] = src.pixels[sy*src.width+sx]
		}
	}
	return out
}
