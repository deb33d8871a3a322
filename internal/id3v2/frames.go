package id3v2

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/simonhull/audiotag/internal/id3v1"
	"github.com/simonhull/audiotag/internal/textenc"
)

// Text encodings
const (
	encLatin1  byte = 0
	encUTF16   byte = 1 // with BOM
	encUTF16BE byte = 2 // v2.4
	encUTF8    byte = 3 // v2.4
)

// v22Upgrades maps three-character ID3v2.2 frame IDs to their v2.4 IDs.
var v22Upgrades = map[string]string{
	"BUF": "RBUF", "CNT": "PCNT", "COM": "COMM", "CRA": "AENC",
	"ETC": "ETCO", "GEO": "GEOB", "IPL": "TIPL", "MCI": "MCDI",
	"MLL": "MLLT", "PIC": "APIC", "POP": "POPM", "REV": "RVRB",
	"SLT": "SYLT", "STC": "SYTC", "TAL": "TALB", "TBP": "TBPM",
	"TCM": "TCOM", "TCO": "TCON", "TCP": "TCMP", "TCR": "TCOP",
	"TDY": "TDLY", "TEN": "TENC", "TFT": "TFLT", "TKE": "TKEY",
	"TLA": "TLAN", "TLE": "TLEN", "TMT": "TMED", "TOA": "TOPE",
	"TOF": "TOFN", "TOL": "TOLY", "TOR": "TDOR", "TOT": "TOAL",
	"TP1": "TPE1", "TP2": "TPE2", "TP3": "TPE3", "TP4": "TPE4",
	"TPA": "TPOS", "TPB": "TPUB", "TRC": "TSRC", "TRD": "TDRC",
	"TRK": "TRCK", "TS2": "TSO2", "TSA": "TSOA", "TSC": "TSOC",
	"TSP": "TSOP", "TSS": "TSSE", "TST": "TSOT", "TT1": "TIT1",
	"TT2": "TIT2", "TT3": "TIT3", "TXT": "TEXT", "TXX": "TXXX",
	"TYE": "TDRC", "UFI": "UFID", "ULT": "USLT", "WAF": "WOAF",
	"WAR": "WOAR", "WAS": "WOAS", "WCM": "WCOM", "WCP": "WCOP",
	"WPB": "WPUB", "WXX": "WXXX",
	// iTunes extensions
	"PCS": "PCST", "TCT": "TCAT", "TDS": "TDES", "TID": "TGID",
	"WFD": "WFED", "MVI": "MVIN", "MVN": "MVNM", "GP1": "GRP1",
	"TDR": "TDRL",
}

// v23Upgrades maps ID3v2.3 frame IDs replaced in v2.4.
var v23Upgrades = map[string]string{
	"TORY": "TDOR",
	"TYER": "TDRC",
	"IPLS": "TIPL",
}

// upgradeID returns the v2.4 ID of a frame, or false when a v2.2 frame
// has no v2.4 equivalent.
func upgradeID(id string, major byte) (string, bool) {
	switch major {
	case 2:
		up, ok := v22Upgrades[id]
		return up, ok
	case 3:
		if up, ok := v23Upgrades[id]; ok {
			return up, true
		}
	}
	return id, true
}

// isTextFrame reports whether a frame holds encoded text. The iTunes
// frames outside the T namespace are text frames too.
func isTextFrame(id string) bool {
	switch id {
	case "TXXX":
		return false
	case "GRP1", "MVNM", "MVIN", "WFED":
		return true
	}
	return strings.HasPrefix(id, "T")
}

func validFrameID(id []byte) bool {
	for _, c := range id {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return len(id) > 0
}

// decodeText decodes b in the given ID3v2 text encoding.
func decodeText(b []byte, enc byte, off int64) (string, error) {
	switch enc {
	case encLatin1:
		return textenc.DecodeLatin1(b), nil
	case encUTF16:
		return textenc.DecodeUTF16(trimOddNul(b), "ID3v2 frame", off)
	case encUTF16BE:
		return textenc.DecodeUTF16BE(trimOddNul(b), "ID3v2 frame", off)
	case encUTF8:
		return textenc.DecodeUTF8(b, "ID3v2 frame", off)
	}
	return "", errEncoding(enc, off)
}

// cutTerminated splits b at the first string terminator of the encoding:
// a NUL byte, or a NUL pair at an even offset from the start of the string
// for UTF-16. Without a terminator the whole slice is the string.
//
// Some writers pad UTF-16 strings with a single NUL, which leaves the next
// string one byte off; that byte is skipped.
func cutTerminated(b []byte, enc byte) (head, rest []byte) {
	if isUTF16(enc) {
		for i := 0; i+1 < len(b); i += 2 {
			if b[i] == 0 && b[i+1] == 0 {
				rest = b[i+2:]
				if strayNul(rest, enc) {
					rest = rest[1:]
				}
				return b[:i], rest
			}
		}
		return b, nil
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i], b[i+1:]
	}
	return b, nil
}

// splitValues decodes a NUL-separated list of strings. Trailing
// terminators and NUL padding are ignored.
func splitValues(b []byte, enc byte, off int64) ([]string, error) {
	var values []string
	for !allZero(b) {
		var head []byte
		head, b = cutTerminated(b, enc)
		s, err := decodeText(head, enc, off)
		if err != nil {
			return nil, err
		}
		values = append(values, s)
	}
	for len(values) > 0 && values[len(values)-1] == "" {
		values = values[:len(values)-1]
	}
	return values, nil
}

func isUTF16(enc byte) bool {
	return enc == encUTF16 || enc == encUTF16BE
}

// strayNul reports whether rest starts with a pad byte rather than a
// string: a NUL that leaves it odd-sized or sits in front of a BOM.
func strayNul(rest []byte, enc byte) bool {
	if len(rest) == 0 || rest[0] != 0 {
		return false
	}
	if len(rest)%2 == 1 {
		return true
	}
	return enc == encUTF16 && len(rest) >= 3 &&
		(rest[1] == 0xFF && rest[2] == 0xFE || rest[1] == 0xFE && rest[2] == 0xFF)
}

// trimOddNul drops a single NUL byte that leaves UTF-16 text odd-sized.
func trimOddNul(b []byte) []byte {
	if len(b)%2 == 1 && b[len(b)-1] == 0 {
		return b[:len(b)-1]
	}
	return b
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// resolveGenre expands ID3v1 genre references used in TCON: "17",
// "(17)", "(17)Rock", "(RX)" and "(CR)".
func resolveGenre(s string) string {
	if n, err := strconv.Atoi(s); err == nil {
		if g := id3v1.Genre(n); g != "" {
			return g
		}
		return s
	}
	if strings.HasPrefix(s, "((") {
		return s[1:]
	}
	if !strings.HasPrefix(s, "(") {
		return s
	}
	end := strings.IndexByte(s, ')')
	if end < 0 {
		return s
	}
	ref, refinement := s[1:end], s[end+1:]
	if refinement != "" {
		return refinement
	}
	switch ref {
	case "RX":
		return "Remix"
	case "CR":
		return "Cover"
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if g := id3v1.Genre(n); g != "" {
			return g
		}
	}
	return s
}

// pictureMIME converts an ID3v2.2 image format ("JPG", "PNG") to a MIME
// type.
func pictureMIME(format string) string {
	switch strings.ToUpper(format) {
	case "JPG", "JPEG":
		return "image/jpeg"
	case "PNG":
		return "image/png"
	case "GIF":
		return "image/gif"
	case "BMP":
		return "image/bmp"
	case "", "-->":
		return ""
	}
	return "image/" + strings.ToLower(format)
}
