package alignment

// ---------------------------------------------------------------------------
// Command mask
// ---------------------------------------------------------------------------

// isCommandNameByte reports whether b may appear in a command name after the
// leading backslash.  Command names are ASCII letters plus '@' (the internal
// macro convention); anything more exotic is deliberately not recognised.
func isCommandNameByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '@'
}

// commandMask scans the markup string once and returns a boolean slice of
// identical length where position i is true iff i falls inside a
// command-name token: a backslash followed by one or more letter/'@' bytes,
// the backslash included.  A truncated command sequence (a trailing backslash
// at the end of the string) is masked up to the string end.
//
// An escaped non-letter (e.g. `\{` or `\\`) is not a command name; both bytes
// are left unmasked and the scanner steps past the escaped byte so it cannot
// start a spurious run of its own.
func commandMask(markup string) []bool {
	mask := make([]bool, len(markup))
	i := 0
	for i < len(markup) {
		if markup[i] != '\\' {
			i++
			continue
		}
		j := i + 1
		for j < len(markup) && isCommandNameByte(markup[j]) {
			j++
		}
		switch {
		case j > i+1:
			for k := i; k < j; k++ {
				mask[k] = true
			}
			i = j
		case i+1 == len(markup):
			mask[i] = true
			i = j
		default:
			i += 2
		}
	}
	return mask
}

// maskCovers reports whether any position in the half-open range [start, end)
// is marked in mask.  A candidate substring match is rejected when it is
// fully or partially inside a command-name run.
func maskCovers(mask []bool, start, end int) bool {
	for k := start; k < end; k++ {
		if mask[k] {
			return true
		}
	}
	return false
}
