package topics

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Library renders concrete topic strings from category templates. It
// implements selector.Resolver.
type Library struct {
	rng *rand.Rand
}

// LibraryOption customises a Library.
type LibraryOption func(*Library)

// WithRand injects a seeded random source for reproducible rendering.
func WithRand(r *rand.Rand) LibraryOption {
	return func(l *Library) { l.rng = r }
}

// NewLibrary returns a template library backed by its own random source.
func NewLibrary(opts ...LibraryOption) *Library {
	l := &Library{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Resolve picks a template for the category and fills its placeholders.
// The lang tag only matters for the alphabet categories; all other
// categories render the same regardless of language mode.
func (l *Library) Resolve(categoryKey, lang string) (string, error) {
	def, ok := lookup(categoryKey)
	if !ok {
		return "", fmt.Errorf("unknown category %q", categoryKey)
	}
	template := def.templates[l.rng.Intn(len(def.templates))]
	return l.fill(categoryKey, template), nil
}

func (l *Library) fill(categoryKey, template string) string {
	switch categoryKey {
	case "english_alphabet":
		letter := l.pickKey(alphabetWords)
		word := l.pick(alphabetWords[letter])
		return replaceAll(template,
			"{letter}", letter,
			"{letter_lower}", strings.ToLower(letter),
			"{word}", word)

	case "hindi_alphabet":
		letter := l.pickKey(hindiWords)
		word := l.pick(hindiWords[letter])
		return replaceAll(template, "{letter}", letter, "{word}", word)

	case "numbers_counting":
		if strings.Contains(template, "{number}") {
			n := singleNumbers[l.rng.Intn(len(singleNumbers))]
			return replaceAll(template, "{number}", strconv.Itoa(n))
		}
		r := countRanges[l.rng.Intn(len(countRanges))]
		return replaceAll(template,
			"{start}", strconv.Itoa(r[0]),
			"{end}", strconv.Itoa(r[1]))

	case "colors_shapes":
		return replaceAll(template,
			"{color}", l.pick(colors),
			"{shape}", l.pick(shapes))

	case "fruits_vegetables":
		return replaceAll(template,
			"{fruit}", l.pick(fruits),
			"{vegetable}", l.pick(vegetables))

	case "animals_sounds":
		return replaceAll(template, "{animal}", l.pick(animals))

	case "body_parts":
		return replaceAll(template, "{part}", l.pick(bodyParts))

	case "daily_habits":
		return replaceAll(template, "{habit}", l.pick(habits))

	case "emotions":
		return replaceAll(template, "{emotion}", l.pick(emotions))

	case "rhymes_learning":
		return replaceAll(template, "{rhyme}", l.pick(rhymes))

	default:
		// simple_logic, basic_math, memory_games, puzzle_games and
		// observation_games use complete templates.
		return template
	}
}

func (l *Library) pick(items []string) string {
	return items[l.rng.Intn(len(items))]
}

// pickKey draws a map key deterministically for a given rng state by
// sorting keys first; Go map iteration order would break seeded tests.
func (l *Library) pickKey(m map[string][]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[l.rng.Intn(len(keys))]
}

func replaceAll(s string, pairs ...string) string {
	return strings.NewReplacer(pairs...).Replace(s)
}
