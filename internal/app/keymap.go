package app

// Key binding constants used in handleKey.
const (
	KeyQuit         = "q"
	KeyCtrlC        = "ctrl+c"
	KeyTab          = "tab"
	KeyUp           = "up"
	KeyDown         = "down"
	KeyJ            = "j"
	KeyK            = "k"
	KeyEnter        = "enter"
	KeyEsc          = "esc"
	KeySpace        = " "
	KeyScrape       = "s"
	KeyForceScrape  = "S"
	KeySelectAll    = "a"
	KeyClearAll     = "c"
	KeyGenerate     = "g"
	KeyMorePosts    = "+"
	KeyMorePostsAlt = "="
	KeyFewerPosts   = "-"
	KeyRefresh      = "r"
	KeyReconnect    = "R"
	KeyApprove      = "A"
	KeyPublish      = "P"
	KeyDelete       = "d"
	KeyEdit         = "e"
	KeySaveEdit     = "ctrl+s"
)
