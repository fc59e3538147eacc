package config

// DefaultStages is the enrichment stage order.
var DefaultStages = []string{
	"websites", "instagram", "social", "press", "reviews", "reels", "posts", "availability",
}

// DefaultCategories is the search query catalogue per category.
var DefaultCategories = []CategoryConfig{
	{
		Name:         "restaurant_destination",
		BusinessType: "restaurant",
		Queries: []string{
			"best restaurant",
			"fine dining",
			"tasting menu restaurant",
			"michelin star restaurant",
			"michelin recommended restaurant",
			"james beard award restaurant",
			"hard to book restaurant",
			"sought after restaurant",
			"eater restaurant",
			"chef driven restaurant",
			"omakase restaurant",
			"prix fixe restaurant",
		},
	},
	{
		Name:         "restaurant_neighborhood",
		BusinessType: "restaurant",
		Queries: []string{
			"popular restaurant",
			"farm to table restaurant",
			"neighborhood favorite restaurant",
			"best new restaurant",
			"local favorite restaurant",
			"hidden gem restaurant",
			"best brunch spot",
			"best date night restaurant",
			"best pasta restaurant",
			"best seafood restaurant",
			"best steakhouse",
			"best pizza restaurant",
		},
	},
	{
		Name:         "butcher",
		BusinessType: "butcher",
		Queries: []string{
			"artisan butcher shop",
			"craft butcher",
			"whole animal butcher",
			"specialty butcher shop",
			"independent butcher shop",
			"local butcher shop",
			"dry aged beef butcher",
			"heritage breed butcher",
		},
	},
	{
		Name:         "wine_store",
		BusinessType: "wine_store",
		Queries: []string{
			"wine shop",
			"natural wine shop",
			"wine boutique",
			"fine wine store",
			"wine club membership",
			"favorite wine store",
			"independent wine shop",
			"curated wine shop",
			"top rated wine store",
			"sommelier wine shop",
		},
	},
}

// DefaultCities are top US metros plus food-focused cities.
var DefaultCities = []string{
	"New York, New York",
	"Brooklyn, New York",
	"Los Angeles, California",
	"San Francisco, California",
	"Oakland, California",
	"Chicago, Illinois",
	"Portland, Oregon",
	"Seattle, Washington",
	"Austin, Texas",
	"Dallas, Texas",
	"Houston, Texas",
	"Denver, Colorado",
	"Nashville, Tennessee",
	"Atlanta, Georgia",
	"Boston, Massachusetts",
	"Philadelphia, Pennsylvania",
	"Washington, DC",
	"Minneapolis, Minnesota",
	"New Orleans, Louisiana",
	"Miami, Florida",
	"San Diego, California",
	"Phoenix, Arizona",
	"Detroit, Michigan",
	"Charlotte, North Carolina",
	"Raleigh, North Carolina",
	"Asheville, North Carolina",
	"Charleston, South Carolina",
	"Savannah, Georgia",
	"Pittsburgh, Pennsylvania",
	"Baltimore, Maryland",
	"St. Louis, Missouri",
	"Kansas City, Missouri",
	"Salt Lake City, Utah",
	"Richmond, Virginia",
	"Louisville, Kentucky",
	"Indianapolis, Indiana",
	"Columbus, Ohio",
	"Cleveland, Ohio",
	"Cincinnati, Ohio",
	"Milwaukee, Wisconsin",
	"Madison, Wisconsin",
	"Boise, Idaho",
	"Tucson, Arizona",
	"Sacramento, California",
	"San Antonio, Texas",
	"Tampa, Florida",
	"Orlando, Florida",
	"Providence, Rhode Island",
	"Burlington, Vermont",
	"Santa Fe, New Mexico",
}

// DefaultChainKeywords disqualify chains and big-box grocers by name.
var DefaultChainKeywords = []string{
	"walmart", "costco", "whole foods", "trader joe", "kroger",
	"safeway", "albertsons", "publix", "heb", "h-e-b", "target",
	"sam's club", "aldi", "wegmans", "sprouts", "fresh market",
	"harris teeter", "food lion", "giant", "stop & shop",
	"applebee", "chili's", "olive garden", "red lobster",
	"outback", "cheesecake factory", "p.f. chang", "ruth's chris",
	"capital grille", "morton's", "total wine", "binny's",
	"bevmo", "spec's",
}

// DefaultLiquorKeywords disqualify liquor stores from wine store results.
var DefaultLiquorKeywords = []string{
	"liquor", "spirits", "beer & wine", "package store",
	"beer store", "beverage",
}

// DefaultPressDomains are the food media sites counted as press.
var DefaultPressDomains = []string{
	"eater.com", "bonappetit.com", "nytimes.com",
	"foodandwine.com", "saveur.com", "theinfatuation.com",
}

// DefaultReservationKeywords mark a review as describing a hard-to-book venue.
var DefaultReservationKeywords = []string{
	"hard to get a reservation", "hard to get in", "booked weeks out",
	"booked out", "impossible to get", "can't get a table",
	"couldn't get a reservation", "waitlist", "wait list", "fully booked",
	"no availability", "sold out", "book weeks in advance",
	"book months in advance", "good luck getting", "nearly impossible",
}
