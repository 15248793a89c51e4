package game

import (
	"context"
	"strings"
)

// builtinWordPairs is the curated list of related word pairs. The first word
// goes to civilians, the second to undercovers.
var builtinWordPairs = []WordPair{
	{"Fried rice", "Rice porridge"},
	{"Coffee", "Tea"},
	{"Cat", "Dog"},
	{"Sea", "River"},
	{"Moon", "Sun"},
	{"Train", "Bus"},
	{"Guitar", "Ukulele"},
	{"Football", "Basketball"},
	{"Pizza", "Hamburger"},
	{"Mountain", "Hill"},
	{"Pillow", "Blanket"},
	{"Pen", "Pencil"},
	{"Phone", "Tablet"},
	{"Shoes", "Sandals"},
	{"Glasses", "Sunglasses"},
	{"Bicycle", "Motorcycle"},
	{"Ice cream", "Cake"},
	{"Book", "Magazine"},
	{"Banana", "Mango"},
	{"Orange", "Tangerine"},
	{"Spoon", "Fork"},
	{"Chair", "Sofa"},
	{"Table", "Counter"},
	{"Hat", "Cap"},
	{"Clock", "Wristwatch"},
	{"Bag", "Backpack"},
	{"T-shirt", "Shirt"},
	{"Shorts", "Trousers"},
	{"Umbrella", "Raincoat"},
	{"Fridge", "Freezer"},
	{"Microwave", "Oven"},
	{"Television", "Monitor"},
	{"Movie", "Series"},
	{"Song", "Podcast"},
	{"Swimming", "Diving"},
	{"Running", "Walking"},
	{"Dancing", "Yoga"},
	{"Sticky rice", "Steamed rice"},
	{"Papaya salad", "Spicy salad"},
	{"Tom yum", "Tom kha"},
	{"Green curry", "Red curry"},
	{"Pad thai", "Pad see ew"},
	{"Meatball", "Sausage"},
	{"Orange juice", "Lemonade"},
	{"Milk", "Yogurt"},
	{"Bread", "Croissant"},
	{"Socks", "Gloves"},
	{"Scarf", "Necktie"},
	{"Ring", "Bracelet"},
	{"Necklace", "Earrings"},
	{"Key", "Padlock"},
	{"Candle", "Lantern"},
	{"Rose", "Jasmine"},
	{"Tree", "Flower"},
	{"Bird", "Butterfly"},
	{"Fish", "Shrimp"},
	{"Chicken", "Duck"},
	{"Pig", "Cow"},
	{"Elephant", "Giraffe"},
	{"Lion", "Tiger"},
	{"Frog", "Toad"},
	{"Snake", "Lizard"},
	{"Ant", "Bee"},
	{"Mosquito", "Fly"},
	{"Star", "Shooting star"},
	{"Cloud", "Fog"},
	{"Rain", "Snow"},
	{"Wind", "Storm"},
	{"Sand", "Rock"},
	{"Island", "Cape"},
	{"Cave", "Tunnel"},
	{"Bridge", "Expressway"},
	{"Temple", "Church"},
	{"School", "University"},
	{"Hospital", "Clinic"},
	{"Restaurant", "Cafe"},
	{"Market", "Mall"},
	{"Park", "Playground"},
	{"Swimming pool", "Water park"},
	{"Airport", "Train station"},
	{"Bank", "Post office"},
	{"Police officer", "Soldier"},
	{"Doctor", "Nurse"},
	{"Teacher", "Professor"},
	{"Singer", "Musician"},
	{"Actor", "Comedian"},
	{"Painter", "Photographer"},
	{"Chef", "Barista"},
	{"Engineer", "Architect"},
	{"Lawyer", "Judge"},
	{"Pilot", "Ship captain"},
	{"Magic", "Acrobatics"},
	{"Chess", "Checkers"},
	{"Cards", "Dice"},
	{"Kite", "Boomerang"},
	{"Fishing", "Hunting"},
	{"Camping", "Picnic"},
	{"Karaoke", "Disco"},
	{"Sushi", "Sashimi"},
	{"Ramen", "Udon"},
	{"Waffle", "Pancake"},
	{"Chocolate", "Cookie"},
	{"Coconut", "Pineapple"},
	{"Watermelon", "Cantaloupe"},
	{"Grape", "Blueberry"},
	{"Strawberry", "Raspberry"},
	{"Peanut", "Almond"},
	{"Butter", "Cheese"},
	{"Chili sauce", "Ketchup"},
	{"Fish sauce", "Soy sauce"},
	{"Salt", "Sugar"},
	{"Chili", "Pepper"},
}

// BuiltinWordPairs returns a copy of the curated word pairs.
func BuiltinWordPairs() []WordPair {
	out := make([]WordPair, len(builtinWordPairs))
	copy(out, builtinWordPairs)
	return out
}

type builtinWords struct{}

// WordList is a fixed word library, such as one read from a file.
type WordList []WordPair

func (l WordList) WordPairs(context.Context) ([]WordPair, error) {
	return l, nil
}

func (builtinWords) WordPairs(context.Context) ([]WordPair, error) {
	return builtinWordPairs, nil
}

// usablePairs drops pairs that would give both factions the same word.
func usablePairs(pairs []WordPair) []WordPair {
	out := make([]WordPair, 0, len(pairs))
	for _, pair := range pairs {
		civilian := strings.TrimSpace(pair.Civilian)
		undercover := strings.TrimSpace(pair.Undercover)
		if civilian == "" || undercover == "" || civilian == undercover {
			continue
		}
		out = append(out, WordPair{Civilian: civilian, Undercover: undercover})
	}
	return out
}
