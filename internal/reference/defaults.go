package reference

var minerals = []string{
	"sodium", "calcium", "magnesium", "potassium", "bicarbonates",
	"sulfates", "chlorides", "chlorures", "nitrates", "fluorides",
}

// Defaults returns a fresh copy of the built-in tables. Callers may overlay
// dataset values onto the result before sharing it.
func Defaults() *Tables {
	t := &Tables{
		CO2: map[string]float64{
			"wheat": 0.8, "rice": 2.7, "corn": 0.7, "oats": 0.6, "barley": 0.6,

			"beef": 27.0, "pork": 5.8, "chicken": 3.7, "fish_generic": 3.5,
			"egg": 3.0, "milk": 1.3, "cheese": 8.5,

			"tomato": 1.1, "potato": 0.3, "onion": 0.3, "carrot": 0.3, "lettuce": 0.5,
			"apple": 0.4, "orange": 0.4, "banana": 0.8,

			"palm_oil": 7.3, "sunflower_oil": 2.1, "olive_oil": 3.5,
			"coconut_oil": 2.3, "vegetable_oil_generic": 3.0,

			"sugar": 0.6, "salt": 0.1, "water": 0.001, "cocoa": 4.5, "coffee": 6.0,
			"tea": 1.9, "soy": 0.4, "chocolate": 5.0,
		},
		Water: map[string]float64{
			"beef": 15400, "pork": 5988, "chicken": 4325, "egg": 3300,
			"milk": 1020, "cheese": 5060,

			"rice": 2497, "wheat": 1827, "corn": 1222, "sugar": 1782,

			"chocolate": 17196, "coffee": 15897, "tea": 8860,
			"cocoa": 27000, "cocoa_bean": 27000,

			"apple": 822, "orange": 560, "banana": 790, "tomato": 214, "potato": 287,

			"olive_oil": 14430, "palm_oil": 5000, "sunflower_oil": 6800,
			"soy": 2145, "water": 1,
		},
		Energy: map[string]float64{
			"beef": 35.0, "pork": 15.0, "chicken": 10.0, "milk": 2.5,
			"cheese": 12.0, "egg": 6.0,

			"wheat": 3.5, "rice": 5.0, "sugar": 5.5,

			"vegetable_oil_generic": 8.0, "chocolate": 15.0,
			"cocoa": 25.0, "cocoa_bean": 25.0,
		},
		Packaging: map[string]Factor{
			"plastic":   {6.0, 200, 80},
			"pet":       {5.5, 180, 75},
			"hdpe":      {4.8, 160, 70},
			"glass":     {1.2, 30, 15},
			"aluminum":  {11.0, 300, 170},
			"steel":     {2.8, 80, 25},
			"cardboard": {1.1, 100, 12},
			"paper":     {1.3, 150, 15},
			"wood":      {0.3, 50, 5},
			"tetra_pak": {1.5, 120, 18},
		},
		Transport: map[string]TransportFactor{
			"truck":              {0.096, 0.9},
			"truck_small":        {0.180, 1.5},
			"truck_large":        {0.050, 0.6},
			"ship":               {0.016, 0.2},
			"ship_container":     {0.010, 0.15},
			"train":              {0.022, 0.3},
			"train_freight":      {0.018, 0.25},
			"air":                {1.130, 15.0},
			"air_cargo":          {0.800, 12.0},
			"van":                {0.250, 2.5},
			"refrigerated_truck": {0.150, 1.5},
		},
		Distances: map[string]float64{},
		LongDistanceOrigins: []string{
			"china", "india", "brazil", "argentina", "chile",
			"australia", "new zealand", "south africa", "indonesia",
		},
		MediumDistanceOrigins: []string{
			"usa", "canada", "mexico", "morocco", "egypt", "turkey", "ukraine", "russia",
		},
		Mappings: defaultMappings(),
		Synonyms: defaultSynonyms(),
	}

	for _, m := range minerals {
		t.CO2[m] = 0.001
		t.Water[m] = 1
		t.Energy[m] = 0.1
	}

	for _, d := range []struct {
		from, to string
		km       float64
	}{
		{"europe", "europe", 500},
		{"europe", "asia", 8000},
		{"europe", "north_america", 6000},
		{"europe", "south_america", 10000},
		{"europe", "africa", 4000},
		{"europe", "oceania", 15000},
		{"asia", "north_america", 10000},
		{"asia", "south_america", 15000},
	} {
		t.Distances[regionPair(d.from, d.to)] = d.km
	}
	return t
}

func defaultMappings() map[string]IngredientMapping {
	m := func(id, category string) IngredientMapping {
		return IngredientMapping{ID: id, Category: category, Unit: "kg"}
	}
	return map[string]IngredientMapping{
		"water":         m("tap_water", "beverage"),
		"sugar":         m("sugar_beet", "sweetener"),
		"salt":          m("sodium_chloride", "mineral"),
		"wheat":         m("wheat_grain", "cereal"),
		"flour":         m("wheat_flour", "cereal"),
		"rice":          m("rice_grain", "cereal"),
		"corn":          m("corn_grain", "cereal"),
		"milk":          m("raw_milk", "dairy"),
		"butter":        m("butter", "dairy"),
		"cream":         m("cream", "dairy"),
		"cheese":        m("cheese", "dairy"),
		"egg":           m("egg", "animal"),
		"eggs":          m("egg", "animal"),
		"chicken":       m("chicken_meat", "meat"),
		"beef":          m("beef_meat", "meat"),
		"pork":          m("pork_meat", "meat"),
		"fish":          m("fish_generic", "seafood"),
		"soy":           m("soybean", "legume"),
		"soybean":       m("soybean", "legume"),
		"palm oil":      m("palm_oil", "oil"),
		"sunflower oil": m("sunflower_oil", "oil"),
		"olive oil":     m("olive_oil", "oil"),
		"coconut oil":   m("coconut_oil", "oil"),
		"vegetable oil": m("vegetable_oil_generic", "oil"),
		"tomato":        m("tomato", "vegetable"),
		"potato":        m("potato", "vegetable"),
		"onion":         m("onion", "vegetable"),
		"carrot":        m("carrot", "vegetable"),
		"apple":         m("apple", "fruit"),
		"orange":        m("orange", "fruit"),
		"banana":        m("banana", "fruit"),
		"cocoa":         m("cocoa_bean", "tropical"),
		"chocolate":     m("chocolate", "processed"),
		"coffee":        m("coffee_bean", "tropical"),
		"tea":           m("tea_leaf", "tropical"),
		"vanilla":       m("vanilla", "spice"),
		"cinnamon":      m("cinnamon", "spice"),
		"pepper":        m("pepper", "spice"),
	}
}

// Synonym keys are stored as written; the ingredient mapper folds them the
// same way it folds incoming names.
func defaultSynonyms() map[string]string {
	return map[string]string{
		"sucre": "sugar", "azúcar": "sugar", "zucker": "sugar",
		"eau": "water", "agua": "water", "wasser": "water",
		"sel": "salt", "sal": "salt", "salz": "salt",
		"farine": "flour", "harina": "flour", "mehl": "flour",
		"lait": "milk", "leche": "milk", "milch": "milk",
		"beurre": "butter", "mantequilla": "butter",
		"œuf": "egg", "oeuf": "egg", "huevo": "egg", "ei": "egg",
		"poulet": "chicken", "pollo": "chicken", "hähnchen": "chicken",
		"bœuf": "beef", "boeuf": "beef", "ternera": "beef", "rindfleisch": "beef",
		"porc": "pork", "cerdo": "pork", "schweinefleisch": "pork",
		"poisson": "fish", "pescado": "fish", "fisch": "fish",
		"huile de palme":     "palm oil",
		"aceite de palma":    "palm oil",
		"huile de tournesol": "sunflower oil",
		"huile d'olive":      "olive oil",
	}
}
