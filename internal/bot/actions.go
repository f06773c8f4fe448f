package bot

// ActionKind discriminates the inbound user actions the chat-transport
// collaborator can deliver.
type ActionKind int

const (
	// ActionStart — the user opened or returned to the main menu.
	ActionStart ActionKind = iota
	// ActionMenu — the user picked a menu entry; Data carries its id.
	ActionMenu
	// ActionText — free-text input; Data carries the text verbatim.
	ActionText
	// ActionCancel — explicit "back to menu", discarding any partial input.
	ActionCancel
)

// Action is the single entry point's input: a discriminated user action
// tagged with the user identifier.
type Action struct {
	UserID int64
	Kind   ActionKind
	Data   string
}

// Menu ids understood by the dispatcher. Catalog entries and product picks
// carry a parameter after the colon.
const (
	MenuBalance = "balance"
	MenuOrder   = "order"
	MenuHistory = "history"
	MenuDeposit = "deposit"
	MenuHelp    = "help"
	MenuConfirm = "confirm"
	MenuCancel  = "cancel"

	menuCatalogPrefix = "catalog:"
	menuSelectPrefix  = "select:"
	menuDepositPrefix = "deposit:"
)

// Choice is one selectable option offered to the user. The collaborator
// decides how to render it (inline keyboard, numbered list, ...).
type Choice struct {
	Label string
	Data  string
}

// Reply is the render instruction returned to the chat-transport
// collaborator: text plus an optional choice list, no platform formatting.
type Reply struct {
	Text    string
	Choices []Choice
}

func textReply(text string) *Reply {
	return &Reply{Text: text}
}

// Category is one catalog menu entry: a LISTxx category code plus its
// display name.
type Category struct {
	Code string
	Name string
}

// Categories mirrors the provider's catalog category codes.
var Categories = []Category{
	{Code: "LISTDH", Name: "Telkomsel Data Harian"},
	{Code: "LISTDM", Name: "Telkomsel Data Mingguan"},
	{Code: "LISTDB", Name: "Telkomsel Data Bulanan"},
	{Code: "LISTSAKTI", Name: "Telkomsel Combo Sakti"},
	{Code: "LISTDI", Name: "Indosat Only4You"},
	{Code: "LISTDX", Name: "XL/AXIS Cuanku"},
	{Code: "LISTDTR", Name: "Tri CuanMax"},
	{Code: "LISTBYU", Name: "By.U"},
}

// depositAmounts are the ticket presets offered by the deposit menu.
var depositAmounts = []uint64{50000, 100000, 200000, 500000}

func categoryName(code string) string {
	for _, c := range Categories {
		if c.Code == code {
			return c.Name
		}
	}
	return code
}
