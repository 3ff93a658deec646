package entity

// Event is one vote kept for reporting. Events survive an admin reset of
// the vote log.
type Event struct {
	ID     string `db:"id" json:"id"`
	Choice string `db:"choice" json:"choice"`
	Time   string `db:"time" json:"time"`
}

// Total is the number of votes recorded for one spot.
type Total struct {
	Choice string `db:"choice" json:"choice"`
	Votes  int64  `db:"votes" json:"votes"`
}
