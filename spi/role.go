package spi

import "strconv"

// Role classifies the kind of user interface element an Accessible represents.
//
// The numeric values follow the provider's role enumeration. They are not
// indices into the display name table below; the two have drifted apart
// (RolePushButton is 33 while "pushbutton" is entry 42). RoleName looks the
// value up in the table as is and does not try to reconcile them.
type Role int32

const (
	RoleInvalid Role = iota
	RoleAlert
	RoleCanvas
	RoleCheckBox
	RoleColorChooser
	RoleColumnHeader
	RoleComboBox
	RoleDesktopIcon
	RoleDesktopFrame
	RoleDialog
	RoleDirectoryPane
	RoleFileChooser
	RoleFiller
	RoleFocusTraversable
	RoleFrame
	RoleGlassPane
	RoleHTMLContainer
	RoleIcon
	RoleInternalFrame
	RoleLabel
	RoleLayeredPane
	RoleList
	RoleListItem
	RoleMenu
	RoleMenuBar
	RoleMenuItem
	RoleOptionPane
	RolePageTab
	RolePageTabList
	RolePanel
	RolePasswordText
	RolePopupMenu
	RoleProgressBar
	RolePushButton
	RoleRadioButton
	RoleRootPane
	RoleRowHeader
	RoleScrollBar
	RoleScrollPane
	RoleSeparator
	RoleSlider
	RoleSplitPane
	RoleTable
	RoleTableCell
	RoleTableColumnHeader
	RoleTableRowHeader
	RoleText
	RoleToggleButton
	RoleToolBar
	RoleToolTip
	RoleTree
	RoleUnknown
	RoleViewport
	RoleWindow
	RoleLastDefined
)

// PushButtonNameIndex is the table index holding "pushbutton".
const PushButtonNameIndex = 42

// roleNames is kept exactly as providers publish it, blank and duplicate
// entries included.
var roleNames = [...]string{
	" ",
	"accelerator label",
	"alert",
	"animation",
	"arrow",
	"calendar",
	"canvas",
	"check box",
	"menu item",
	"color chooser",
	"column header",
	"combo box",
	"date editor",
	"desktop icon",
	"desktop frame",
	"dial",
	"dialog",
	"directory pane",
	"drawing area",
	"file chooser",
	"filler",
	"font chooser",
	"frame",
	"glass pane",
	"HTML container",
	"icon",
	"image",
	"internal frame",
	"label",
	"layered pane",
	"list",
	"list item",
	"menu",
	"menubar",
	"menu item",
	"option pane",
	"page tab",
	"page tab list",
	"panel",
	"password text",
	"popup menu",
	"progress bar",
	"pushbutton",
	"radiobutton",
	"radio menu item",
	"root pane",
	"row header",
	"scrollbar",
	"scrollpane",
	"separator",
	"slider",
	"split pane",
	"spin button",
	"status bar",
	"table",
	"table cell",
	"table column header",
	"table row header",
	"tearoff menu item",
	"text",
	"toggle button",
	"toolbar",
	"tooltip",
	"tree",
	" ",
	"viewport",
	"window",
}

// RoleNameCount is the number of entries in the role name table.
const RoleNameCount = len(roleNames)

// RoleName returns the display name stored at index role of the role name
// table, or "" when role is outside the table.
func RoleName(role Role) string {
	if role < 0 || int(role) >= len(roleNames) {
		return ""
	}
	return roleNames[role]
}

// String returns the table name, or the number for roles past the table.
func (r Role) String() string {
	if name := RoleName(r); name != "" {
		return name
	}
	return "role(" + strconv.Itoa(int(r)) + ")"
}
