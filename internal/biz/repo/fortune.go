package repo

// FortuneRepo draws canned fortune lines
type FortuneRepo interface {
	Draw() (string, error)
}
