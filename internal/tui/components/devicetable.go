package components

import (
	"fmt"
	"strconv"

	"github.com/allbin/go-pcireset"
	"github.com/allbin/go-pcireset/internal/tui/colors"
	"github.com/allbin/go-pcireset/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
)

const (
	columnKeyInterface = "interface"
	columnKeyBDF       = "bdf"
	columnKeyID        = "id"
	columnKeyLink      = "link"
	columnKeyMaxLink   = "maxlink"
	columnKeyPath      = "path"
	columnKeyWrite     = "write"
	columnKeyReset     = "reset"
	columnKeyRestore   = "restore"
	columnKeyError     = "error"
)

var baseStyle = lipgloss.NewStyle().
	Foreground(colors.Text).
	BorderForeground(colors.Surface1).
	Align(lipgloss.Left)

// DeviceTable renders devices as a static bordered table
func DeviceTable(devices []pcireset.Device) string {
	columns := []table.Column{
		table.NewColumn(columnKeyInterface, "#", 4),
		table.NewColumn(columnKeyBDF, "BDF", 14),
		table.NewColumn(columnKeyID, "Vendor:Device", 15),
		table.NewColumn(columnKeyLink, "Link", 16),
		table.NewColumn(columnKeyMaxLink, "Max Link", 16),
		table.NewColumn(columnKeyPath, "Node", 20),
	}

	rows := make([]table.Row, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, table.NewRow(table.RowData{
			columnKeyInterface: strconv.Itoa(d.Interface),
			columnKeyBDF:       d.BDF,
			columnKeyID:        deviceID(d),
			columnKeyLink:      d.LinkString(),
			columnKeyMaxLink:   maxLinkString(d),
			columnKeyPath:      d.Path,
		}))
	}

	return table.New(columns).
		WithRows(rows).
		WithBaseStyle(baseStyle).
		HeaderStyle(styles.SectionStyle).
		BorderRounded().
		View()
}

// OutcomeTable renders the per-device result of a reset batch
func OutcomeTable(result *pcireset.Result) string {
	columns := []table.Column{
		table.NewColumn(columnKeyInterface, "#", 4),
		table.NewColumn(columnKeyBDF, "BDF", 14),
		table.NewColumn(columnKeyWrite, "Config Write", 14),
		table.NewColumn(columnKeyReset, "Reset", 10),
		table.NewColumn(columnKeyRestore, "Restore", 10),
		table.NewColumn(columnKeyError, "Error", 40),
	}

	rows := make([]table.Row, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		errText := ""
		if o.Err != nil {
			errText = o.Err.Error()
		}
		rows = append(rows, table.NewRow(table.RowData{
			columnKeyInterface: strconv.Itoa(o.Interface),
			columnKeyBDF:       o.BDF,
			columnKeyWrite:     statusCell(o.ConfigWriteOK, "ok", "failed"),
			columnKeyReset:     statusCell(o.Completed, "done", "pending"),
			columnKeyRestore:   statusCell(o.RestoreOK, "ok", "failed"),
			columnKeyError:     errText,
		}))
	}

	return table.New(columns).
		WithRows(rows).
		WithBaseStyle(baseStyle).
		HeaderStyle(styles.SectionStyle).
		BorderRounded().
		View()
}

func statusCell(ok bool, good, bad string) table.StyledCell {
	if ok {
		return table.NewStyledCell(good, styles.SuccessStyle)
	}
	return table.NewStyledCell(bad, styles.WarningStyle)
}

func deviceID(d pcireset.Device) string {
	if d.VendorID == 0 && d.DeviceID == 0 {
		return "unknown"
	}
	return fmt.Sprintf("%04x:%04x", d.VendorID, d.DeviceID)
}

func maxLinkString(d pcireset.Device) string {
	if d.MaxLinkSpeed == 0 {
		return "unknown"
	}
	return fmt.Sprintf("%.1f GT/s x%d", d.MaxLinkSpeed, int(d.MaxLinkWidth))
}
