package entity

// Vote is one entry of the admin vote log. It carries no voter identity
// because the log is readable without credentials.
type Vote struct {
	ID     string `db:"id" json:"id"`
	Choice string `db:"choice" json:"choice"`
	Time   string `db:"time" json:"time"`
}
