package domain

import "slices"

// Place is a candidate location. ID and Name are fixed at creation.
type Place struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Tags []Tag  `json:"tags" yaml:"tags"`
}

// Match is a scored place returned by the matching engine.
type Match struct {
	Place Place `json:"place"`
	Score int   `json:"score"`
}

var samplePlaces = []Place{
	{ID: "p1", Name: "Larchmont Manor Park", Tags: []Tag{WaterfrontViews, QuietSpaces, NatureWalks, SunsetSpots, ScenicOverlook}},
	{ID: "p2", Name: "Harbor Lights Boardwalk", Tags: []Tag{WaterfrontViews, InstagramWorthy, FamilyFriendly}},
	{ID: "p3", Name: "Riverside Jazz Nights", Tags: []Tag{LiveMusic, LivelyNightlife, WaterfrontViews}},
	{ID: "p4", Name: "Maplewood Reading Garden", Tags: []Tag{QuietSpaces, CoffeeNooks}},
	{ID: "p5", Name: "Old Mill Stone Bridge", Tags: []Tag{HistoricCharms, InstagramWorthy, NatureWalks, ScenicOverlook}},
}

// SamplePlaces returns the built-in demo places. The result is a deep copy.
func SamplePlaces() []Place {
	places := make([]Place, 0, len(samplePlaces))
	for _, p := range samplePlaces {
		p.Tags = slices.Clone(p.Tags)
		places = append(places, p)
	}
	return places
}
