package topics

// Fill data for the template placeholders. Everything here is generic,
// unbranded early-learning vocabulary.

var alphabetWords = map[string][]string{
	"A": {"Apple", "Ant", "Airplane"},
	"B": {"Ball", "Banana", "Bear"},
	"C": {"Cat", "Car", "Cup"},
	"D": {"Dog", "Duck", "Door"},
	"E": {"Elephant", "Egg", "Eye"},
	"F": {"Fish", "Flower", "Frog"},
	"G": {"Goat", "Grapes", "Gate"},
	"H": {"Hat", "House", "Horse"},
	"I": {"Ice cream", "Igloo", "Ink"},
	"J": {"Jug", "Jet", "Juice"},
	"K": {"Kite", "King", "Key"},
	"L": {"Lion", "Leaf", "Lamp"},
	"M": {"Monkey", "Moon", "Mango"},
	"N": {"Nest", "Nose", "Net"},
	"O": {"Orange", "Owl", "Ox"},
	"P": {"Pig", "Pen", "Pizza"},
	"Q": {"Queen", "Quilt", "Question"},
	"R": {"Rabbit", "Rain", "Rose"},
	"S": {"Sun", "Star", "Snake"},
	"T": {"Tiger", "Tree", "Tent"},
	"U": {"Umbrella", "Up", "Uncle"},
	"V": {"Van", "Vase", "Violin"},
	"W": {"Watch", "Water", "Window"},
	"X": {"X-ray", "Xylophone", "Box"},
	"Y": {"Yellow", "Yak", "Yo-yo"},
	"Z": {"Zebra", "Zoo", "Zip"},
}

var hindiWords = map[string][]string{
	"अ": {"अनार", "अंगूर"},
	"आ": {"आम", "आलू"},
	"इ": {"इमली", "इंद्रधनुष"},
	"उ": {"उल्लू", "उंगली"},
	"ए": {"एक", "एड़ी"},
	"क": {"कबूतर", "कमल"},
	"ख": {"खरगोश", "खिलौना"},
	"ग": {"गधा", "गेंद"},
	"घ": {"घर", "घड़ी"},
	"च": {"चम्मच", "चश्मा"},
	"छ": {"छतरी", "छत"},
	"ज": {"जहाज", "जग"},
	"ट": {"टमाटर", "टोपी"},
	"त": {"तरबूज", "तालाब"},
	"द": {"दवा", "दरवाजा"},
	"न": {"नल", "नाव"},
	"प": {"पतंग", "पंखा"},
	"फ": {"फल", "फूल"},
	"ब": {"बकरी", "बादल"},
	"भ": {"भालू", "भेड़"},
	"म": {"मछली", "मोर"},
	"र": {"रथ", "राजा"},
	"ल": {"लड्डू", "लट्टू"},
	"श": {"शेर", "शलजम"},
	"स": {"सेब", "साप"},
	"ह": {"हाथी", "हल"},
}

var countRanges = [][2]int{
	{1, 5}, {1, 10}, {1, 20}, {11, 20}, {5, 10}, {10, 15},
}

var singleNumbers = []int{1, 2, 3, 4, 5, 10, 15, 20}

var colors = []string{
	"Red", "Blue", "Yellow", "Green", "Orange", "Purple", "Pink", "Brown", "Black", "White",
}

var shapes = []string{
	"Circle", "Square", "Triangle", "Rectangle", "Star", "Heart", "Diamond", "Oval",
}

var fruits = []string{
	"Apple", "Banana", "Orange", "Grapes", "Mango", "Strawberry", "Watermelon", "Pineapple",
}

var vegetables = []string{
	"Carrot", "Tomato", "Potato", "Broccoli", "Peas", "Corn", "Pumpkin", "Cucumber",
}

var animals = []string{
	"Cow", "Horse", "Sheep", "Goat", "Pig", "Chicken", "Duck", "Rooster",
	"Lion", "Elephant", "Monkey", "Giraffe", "Zebra", "Tiger", "Bear", "Panda",
	"Dog", "Cat", "Rabbit", "Fish", "Bird", "Hamster",
}

var bodyParts = []string{
	"Head", "Eyes", "Ears", "Nose", "Mouth", "Hands", "Feet",
	"Fingers", "Toes", "Hair", "Teeth", "Tongue", "Arms", "Legs",
}

var habits = []string{
	"Brush Your Teeth", "Wash Your Hands", "Take a Bath",
	"Eat Healthy Food", "Drink Water", "Sleep on Time",
	"Clean Your Room", "Comb Your Hair",
	"Say Please and Thank You", "Share with Friends",
}

var emotions = []string{
	"Happy", "Sad", "Angry", "Scared", "Excited", "Surprised", "Proud", "Calm",
}

var rhymes = []string{
	"Twinkle Twinkle Little Star", "ABC Song", "One Two Buckle My Shoe",
	"Head Shoulders Knees and Toes", "Wheels on the Bus",
	"Old MacDonald Had a Farm", "Baa Baa Black Sheep",
	"Humpty Dumpty", "Jack and Jill", "Five Little Ducks",
}
