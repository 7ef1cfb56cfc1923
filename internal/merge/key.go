// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"regexp"
	"strconv"
	"strings"
)

// Sources write musical keys in several notations: standard ("F# minor",
// "Abm"), abbreviated ("Am", "F#min"), and the Camelot wheel popular in
// DJ software ("11A"). CanonicalKey maps all of them onto one canonical
// form, "<tonic> major" or "<tonic> minor" with sharps preferred over
// enharmonic flats, so candidates from different sources compare equal.

// camelotPattern matches wheel positions like "8A", "08a", "11B".
var camelotPattern = regexp.MustCompile(`^0?(\d{1,2})([ABab])$`)

// keyPattern matches standard notation: tonic letter, optional
// accidental, optional mode word.
var keyPattern = regexp.MustCompile(`^([A-Ga-g])\s*([#♯b♭]?)\s*(minor|major|min|maj|m)?$`)

// camelotMinor and camelotMajor map wheel positions 1-12 to tonics.
var camelotMinor = [13]string{"", "G#", "D#", "A#", "F", "C", "G", "D", "A", "E", "B", "F#", "C#"}
var camelotMajor = [13]string{"", "B", "F#", "C#", "G#", "D#", "A#", "F", "C", "G", "D", "A", "E"}

// flatToSharp folds enharmonic flats onto the sharp-preferred tonic set.
var flatToSharp = map[string]string{
	"Ab": "G#", "Bb": "A#", "Cb": "B", "Db": "C#", "Eb": "D#", "Fb": "E", "Gb": "F#",
}

// CanonicalKey normalizes a musical key notation. The second return is
// false when the input is not recognizable as a key.
func CanonicalKey(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	if m := camelotPattern.FindStringSubmatch(s); m != nil {
		pos, err := strconv.Atoi(m[1])
		if err != nil || pos < 1 || pos > 12 {
			return "", false
		}
		if strings.EqualFold(m[2], "A") {
			return camelotMinor[pos] + " minor", true
		}
		return camelotMajor[pos] + " major", true
	}

	if m := keyPattern.FindStringSubmatch(s); m != nil {
		tonic := strings.ToUpper(m[1])
		switch m[2] {
		case "#", "♯":
			tonic += "#"
		case "b", "♭":
			tonic += "b"
		}
		if sharp, ok := flatToSharp[tonic]; ok {
			tonic = sharp
		}

		mode := "major"
		switch strings.ToLower(m[3]) {
		case "m", "min", "minor":
			mode = "minor"
		}
		return tonic + " " + mode, true
	}

	return "", false
}
