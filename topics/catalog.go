// Package topics holds the fixed early-learning category catalog and the
// template resolver that turns a chosen category into a concrete video
// topic. Content is restricted to ages 2-6: alphabet, counting, colors,
// animals, habits and similar evergreen themes, with no branded or
// copyrighted material.
package topics

import (
	"fmt"

	"kids-learning-pipeline/selector"
)

// AgeGroup is the audience all catalog content targets.
const AgeGroup = "2-6 years"

type definition struct {
	key       string
	label     string
	weight    float64
	templates []string
}

// definitions is the full catalog with relative selection weights.
// Counting and animal content carry the highest weights; observation
// games the lowest.
var definitions = []definition{
	{
		key: "english_alphabet", label: "English Alphabet", weight: 10,
		templates: []string{
			"Learning Letter {letter} - {letter} for {word} | ABC for Toddlers",
			"Fun with Letter {letter} - A to Z Learning for Kids",
			"Big Letter {letter} and Small Letter {letter_lower} - Alphabet Fun",
			"Letter {letter} Song - Phonics Learning for Toddlers",
		},
	},
	{
		key: "hindi_alphabet", label: "Hindi Alphabet", weight: 8,
		templates: []string{
			"हिंदी वर्णमाला - {letter} से {word} | Hindi Alphabet for Kids",
			"मजेदार हिंदी {letter} - Fun Hindi Alphabet Learning",
		},
	},
	{
		key: "numbers_counting", label: "Numbers and Counting", weight: 12,
		templates: []string{
			"Learning Numbers {start} to {end} - Counting Fun for Toddlers",
			"Count with Me - Numbers {start} to {end} for Kids",
			"Fun Counting - Learning Number {number} with Objects",
			"How Many? - Learn Counting {start} to {end}",
		},
	},
	{
		key: "colors_shapes", label: "Colors and Shapes", weight: 10,
		templates: []string{
			"Learning Colors - {color} Color Fun for Toddlers",
			"Find the {color} Things - Color Recognition for Kids",
			"Learning Shapes - {shape} Shape for Preschoolers",
			"Colors and Shapes Together - {color} {shape}",
			"Rainbow Colors Song - Learning All Colors for Kids",
		},
	},
	{
		key: "fruits_vegetables", label: "Fruits and Vegetables", weight: 9,
		templates: []string{
			"Learning Fruits - {fruit} is Yummy and Healthy",
			"Vegetables for Kids - Learn About {vegetable}",
			"Healthy Eating - All About {fruit} for Kids",
			"Farm to Table - Where Does {vegetable} Come From?",
		},
	},
	{
		key: "animals_sounds", label: "Animals and Sounds", weight: 12,
		templates: []string{
			"Animal Sounds - What Does a {animal} Say?",
			"Learning About {animal} - Fun Animal Facts for Kids",
			"Wild Animals - Amazing {animal} for Toddlers",
			"Animal Families - Baby {animal} and Parent {animal}",
		},
	},
	{
		key: "simple_logic", label: "Simple Logic", weight: 11,
		templates: []string{
			"Big and Small - Learning Sizes for Toddlers",
			"More or Less - Counting and Comparing for Kids",
			"Same and Different - Matching Game for Preschoolers",
			"Tall and Short - Learning Opposites for Toddlers",
			"Full and Empty - Understanding Quantity for Kids",
		},
	},
	{
		key: "body_parts", label: "Body Parts", weight: 8,
		templates: []string{
			"Learning Body Parts - Head, Shoulders, Knees and Toes",
			"My Body - Learning About {part} for Kids",
			"Five Senses - Learning About Eyes, Ears, Nose for Kids",
			"Parts of Face - Learning About {part} for Preschoolers",
		},
	},
	{
		key: "daily_habits", label: "Daily Habits", weight: 9,
		templates: []string{
			"Good Habits - {habit} Every Day for Kids",
			"Healthy Habits - Learning to {habit} for Preschoolers",
			"Morning Routine - {habit} for Kids",
			"Bedtime Routine - {habit} Before Sleep",
		},
	},
	{
		key: "emotions", label: "Emotional Learning", weight: 8,
		templates: []string{
			"Learning Emotions - Feeling {emotion} for Kids",
			"It's Okay to Feel {emotion} - Emotional Learning for Kids",
			"All About Feelings - Happy, Sad, Angry for Preschoolers",
		},
	},
	{
		key: "basic_math", label: "Basic Math Games", weight: 10,
		templates: []string{
			"Simple Addition - Learning 1+1 for Toddlers",
			"Counting More and Less - Math Fun for Kids",
			"One More, One Less - Number Concepts for Kids",
			"Simple Subtraction - Taking Away for Toddlers",
		},
	},
	{
		key: "rhymes_learning", label: "Rhymes with Learning", weight: 9,
		templates: []string{
			"Nursery Rhyme - {rhyme} with Learning",
			"Sing and Learn - {rhyme} for Kids",
			"Classic Rhyme - {rhyme} with Actions",
		},
	},
	{
		key: "memory_games", label: "Matching and Memory Games", weight: 7,
		templates: []string{
			"Memory Matching Game - Find the Pairs for Kids",
			"What's Missing? - Memory Game for Toddlers",
			"Match the Colors - Memory Game for Kids",
		},
	},
	{
		key: "puzzle_games", label: "Puzzle Thinking Games", weight: 7,
		templates: []string{
			"Jigsaw Puzzle Fun - Simple Puzzles for Toddlers",
			"Shape Sorting - Puzzle Game for Kids",
			"Pattern Puzzle - What Comes Next for Kids?",
		},
	},
	{
		key: "observation_games", label: "Observation and Attention Games", weight: 6,
		templates: []string{
			"Spot the Difference - Observation Game for Kids",
			"Find the Hidden Object - Search Game for Toddlers",
			"Count How Many - Observation Fun for Preschoolers",
		},
	},
}

// hindiMode lists the categories available when the channel runs in
// Hindi-only mode.
var hindiMode = map[string]bool{
	"hindi_alphabet":    true,
	"numbers_counting":  true,
	"colors_shapes":     true,
	"fruits_vegetables": true,
	"animals_sounds":    true,
	"simple_logic":      true,
	"daily_habits":      true,
	"emotions":          true,
	"basic_math":        true,
}

// Catalog returns the selectable categories for a language mode:
// "en" excludes the Hindi alphabet, "hi" restricts to Hindi-suitable
// categories, anything else ("both", "") returns everything.
// Optional weight overrides replace the built-in weights per key.
func Catalog(lang string, weightOverrides map[string]float64) []selector.Category {
	var out []selector.Category
	for _, def := range definitions {
		switch lang {
		case "en":
			if def.key == "hindi_alphabet" {
				continue
			}
		case "hi":
			if !hindiMode[def.key] {
				continue
			}
		}
		weight := def.weight
		if w, ok := weightOverrides[def.key]; ok {
			weight = w
		}
		out = append(out, selector.Category{Key: def.key, Label: def.label, Weight: weight})
	}
	return out
}

// Label returns the human-readable label for a category key.
func Label(key string) (string, error) {
	for _, def := range definitions {
		if def.key == key {
			return def.label, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", key)
}

func lookup(key string) (definition, bool) {
	for _, def := range definitions {
		if def.key == key {
			return def, true
		}
	}
	return definition{}, false
}
