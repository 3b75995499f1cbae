package font

// IsEmoji reports whether r defaults to emoji presentation and should be
// looked up in the color font before the text faces. Covers the common
// presentation blocks; variation-selector sequences are resolved by the
// terminal engine before cells reach the renderer.
func IsEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1F5FF: // Misc symbols and pictographs
		return true
	case r >= 0x1F600 && r <= 0x1F64F: // Emoticons
		return true
	case r >= 0x1F680 && r <= 0x1F6FF: // Transport and map
		return true
	case r >= 0x1F900 && r <= 0x1F9FF: // Supplemental symbols
		return true
	case r >= 0x1FA70 && r <= 0x1FAFF: // Symbols and pictographs extended-A
		return true
	case r >= 0x2600 && r <= 0x26FF: // Misc symbols (default emoji subset)
		return emojiPresentation26[r-0x2600]
	case r >= 0x2700 && r <= 0x27BF: // Dingbats
		return r == 0x2705 || r == 0x270A || r == 0x270B || r == 0x2728 ||
			r == 0x274C || r == 0x274E || (r >= 0x2753 && r <= 0x2755) ||
			r == 0x2757 || (r >= 0x2795 && r <= 0x2797) || r == 0x27B0 || r == 0x27BF
	case r >= 0x1F1E6 && r <= 0x1F1FF: // Regional indicators
		return true
	case r == 0x231A || r == 0x231B: // Watch, hourglass
		return true
	case r >= 0x23E9 && r <= 0x23EC:
		return true
	case r == 0x23F0 || r == 0x23F3:
		return true
	case r >= 0x25FD && r <= 0x25FE:
		return true
	case r >= 0x2B1B && r <= 0x2B1C:
		return true
	case r == 0x2B50 || r == 0x2B55:
		return true
	}
	return false
}

// emojiPresentation26 marks the runes in U+2600..U+26FF that default to
// emoji presentation per UTS #51.
var emojiPresentation26 = func() [256]bool {
	var t [256]bool
	for _, r := range []rune{
		0x2614, 0x2615, 0x2648, 0x2649, 0x264A, 0x264B, 0x264C, 0x264D,
		0x264E, 0x264F, 0x2650, 0x2651, 0x2652, 0x2653, 0x267F, 0x2693,
		0x26A1, 0x26AA, 0x26AB, 0x26BD, 0x26BE, 0x26C4, 0x26C5, 0x26CE,
		0x26D4, 0x26EA, 0x26F2, 0x26F3, 0x26F5, 0x26FA, 0x26FD,
	} {
		t[r-0x2600] = true
	}
	return t
}()
