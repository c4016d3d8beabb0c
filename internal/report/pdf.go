package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/johnfercher/maroto/pkg/color"
	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"

	"tasktool/internal/timecalc"
)

var tableBackground = &color.Color{Red: 240, Green: 240, Blue: 240}

// WritePDF renders the month report to path.
func WritePDF(report MonthReport, path string) error {
	m := pdf.NewMaroto(consts.Portrait, consts.A4)
	m.SetPageMargins(20, 10, 20)

	m.RegisterHeader(func() {
		m.Row(10, func() {
			m.Col(12, func() {
				m.Text("Monthly report "+report.Month, props.Text{
					Top:   3,
					Style: consts.Bold,
					Align: consts.Center,
					Size:  16,
				})
			})
		})
	})

	headers := []string{"Day", "Type", "Come", "Go", "Net", "Target", "Overtime"}
	rows := make([][]string, 0, len(report.Days))
	for _, d := range report.Days {
		rows = append(rows, []string{
			d.Day + " " + d.Weekday[:3],
			string(d.DayType),
			clock(d.Come),
			clock(d.Go),
			timecalc.FormatMinutes(d.NetMinutes),
			timecalc.FormatMinutes(d.TargetMinutes),
			timecalc.FormatMinutes(d.OvertimeMinutes),
		})
	}
	grid := []uint{3, 1, 1, 1, 2, 2, 2}
	m.TableList(headers, rows, props.TableList{
		HeaderProp:           props.TableListContent{Size: 9, GridSizes: grid},
		ContentProp:          props.TableListContent{Size: 9, GridSizes: grid},
		Align:                consts.Center,
		AlternatedBackground: tableBackground,
		HeaderContentSpace:   1,
		Line:                 false,
	})

	m.Row(20, func() {
		m.Col(12, func() {
			m.Text(fmt.Sprintf("Net %s / Target %s / Overtime %s",
				timecalc.FormatMinutes(report.Totals.NetMinutes),
				timecalc.FormatMinutes(report.Totals.TargetMinutes),
				timecalc.FormatMinutes(report.Totals.OvertimeMinutes)), props.Text{
				Top:   10,
				Style: consts.Bold,
				Align: consts.Right,
				Size:  11,
			})
		})
	})

	if len(report.TopTasks) > 0 {
		m.Row(10, func() {
			m.Col(12, func() {
				m.Text("Top tasks ("+timecalc.FormatMinutes(report.TicketMinutes)+" booked)", props.Text{
					Top:   5,
					Style: consts.Bold,
					Size:  12,
				})
			})
		})
		taskRows := make([][]string, 0, len(report.TopTasks))
		for i, t := range report.TopTasks {
			taskRows = append(taskRows, []string{strconv.Itoa(i + 1), t.Title, timecalc.FormatMinutes(t.Minutes)})
		}
		taskGrid := []uint{1, 8, 3}
		m.TableList([]string{"#", "Task", "Booked"}, taskRows, props.TableList{
			HeaderProp:           props.TableListContent{Size: 10, GridSizes: taskGrid},
			ContentProp:          props.TableListContent{Size: 10, GridSizes: taskGrid},
			Align:                consts.Left,
			AlternatedBackground: tableBackground,
			HeaderContentSpace:   1,
			Line:                 false,
		})
	}

	return m.OutputFileAndClose(path)
}

func clock(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("15:04")
}
