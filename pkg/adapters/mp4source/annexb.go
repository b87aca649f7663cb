package mp4source

import "github.com/Eyevinn/mp4ff/mp4"

var startCode = []byte{0, 0, 0, 1}

// annexBParamSets returns the SPS and PPS of an avcC box, each behind a
// start code.
func annexBParamSets(avcC *mp4.AvcCBox) []byte {
	var out []byte
	for _, sps := range avcC.SPSnalus {
		out = append(out, startCode...)
		out = append(out, sps...)
	}
	for _, pps := range avcC.PPSnalus {
		out = append(out, startCode...)
		out = append(out, pps...)
	}
	return out
}

// avccToAnnexB replaces the 4-byte length prefixes of AVCC NAL units with
// start codes. mp4ff rejects avcC records with any other length size, so
// no other size reaches here. A truncated trailing unit is dropped.
func avccToAnnexB(data []byte) []byte {
	out := make([]byte, 0, len(data))
	offset := 0
	for offset+4 <= len(data) {
		n := int(data[offset])<<24 | int(data[offset+1])<<16 | int(data[offset+2])<<8 | int(data[offset+3])
		offset += 4
		if n < 0 || offset+n > len(data) {
			break
		}
		out = append(out, startCode...)
		out = append(out, data[offset:offset+n]...)
		offset += n
	}
	return out
}
