package collection

// Flashcard is a single question/answer pair.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Document is a flashcard as stored under a collection, with its store-assigned id.
type Document struct {
	ID        string    `json:"id"`
	Flashcard Flashcard `json:"flashcard"`
}

// Summary is the listing entry for one collection, embedded in the user record.
type Summary struct {
	Name       string `json:"name"`
	CardsCount int    `json:"cardsCount"`
}

// UserRecord is the root document owned by one user.
type UserRecord struct {
	UserID      string    `json:"userId"`
	Collections []Summary `json:"collections"`
}

// RecordPatch is merged into a UserRecord. Nil fields leave the stored value untouched.
type RecordPatch struct {
	Collections *[]Summary
}
