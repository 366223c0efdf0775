package domain

// ============================================================
// Rooms & Recommendations
// ============================================================

// Room is one bookable room variant. Rooms are values: the catalog hands
// out copies and never mutates them.
type Room struct {
	Name     string `json:"name" yaml:"name"`
	Type     int    `json:"type" yaml:"type"`
	Capacity int    `json:"capacity" yaml:"capacity"`
	Price    int    `json:"price" yaml:"price"` // nightly, in pesos
}

// RecommendationRequest is the body of POST /v1/recommendations and the
// payload the dialogue assembles once guests and budget are known.
// Price is the guest's budget, not a room price.
type RecommendationRequest struct {
	Guests int `json:"guests"`
	Nights int `json:"nights"`
	Price  int `json:"price"`
}

// Recommendation is the room picked for a request plus its predicted rating.
type Recommendation struct {
	Room            string  `json:"room"`
	PredictedRating float64 `json:"predicted_rating"`
	Message         string  `json:"message"`
}

// RatingFeatures is the feature vector fed to the rating model, in the
// order the model was trained on: guests, nights, room type, price.
type RatingFeatures struct {
	Guests   int `json:"guests"`
	Nights   int `json:"nights"`
	RoomType int `json:"room_type"`
	Price    int `json:"price"`
}

// RatingResponse is returned by POST /v1/rating.
type RatingResponse struct {
	Rating float64 `json:"rating"`
}
