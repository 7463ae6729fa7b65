package motion

// PrivacyMask holds a loaded luma mask plus its companion chroma "or mask"
// that forces masked chrominance to neutral grey.
type PrivacyMask struct {
	Mask   []byte // luma plane mask, 0 = blocked, 255 = passes
	OrMask []byte // chroma plane or-mask, 0x80 at masked positions, 0x00 elsewhere
}

// NewPrivacyMask derives the companion or-mask from a loaded luma mask.
func NewPrivacyMask(luma []byte) *PrivacyMask {
	p := &PrivacyMask{
		Mask:   luma,
		OrMask: make([]byte, len(luma)),
	}
	for i, v := range luma {
		if v == 0 {
			p.OrMask[i] = 0x80
		}
	}
	return p
}

// Apply masks a YUV420P image in place: the luma plane is AND-ed with the
// mask (masked bytes become 0); the chroma planes are AND-ed with the mask
// sampled at chroma resolution and then OR-ed with 0x80 at masked
// positions, forcing masked chroma to neutral grey. width/height describe
// the luma plane; chroma planes are assumed 4:2:0 subsampled.
func (p *PrivacyMask) Apply(img []byte, width, height int) {
	lumaSize := width * height
	for i := 0; i < lumaSize && i < len(img); i++ {
		img[i] &= p.Mask[i]
	}

	chromaW, chromaH := width/2, height/2
	uStart := lumaSize
	vStart := lumaSize + chromaW*chromaH

	for cy := 0; cy < chromaH; cy++ {
		for cx := 0; cx < chromaW; cx++ {
			// Sample the luma-resolution mask at the corresponding 2x2 block.
			lumaIdx := (cy*2)*width + cx*2
			if lumaIdx >= len(p.Mask) {
				continue
			}
			m := p.Mask[lumaIdx]
			or := p.OrMask[lumaIdx]

			uIdx := uStart + cy*chromaW + cx
			vIdx := vStart + cy*chromaW + cx
			if uIdx < len(img) {
				img[uIdx] = (img[uIdx] & m) | or
			}
			if vIdx < len(img) {
				img[vIdx] = (img[vIdx] & m) | or
			}
		}
	}
}
