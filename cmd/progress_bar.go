package cmd

import (
	"io"

	au "github.com/logrusorgru/aurora"
	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
)

const (
	mpbType   = "mpb"
	dummyType = "dummy"
)

//ProgressBar shows number of inserted rows
type ProgressBar interface {
	IncrBy(n int)
	//Finish completes the bar (or aborts it if upload failed) and waits for rendering
	Finish(success bool)

	Type() string
}

type DummyProgressBar struct {
}

func (d *DummyProgressBar) IncrBy(n int) {}

func (d *DummyProgressBar) Finish(success bool) {}

func (d *DummyProgressBar) Type() string { return dummyType }

type MultiProgressBar struct {
	progress *mpb.Progress
	bar      *mpb.Bar
	total    int64
}

//NewMultiProgressBar renders rows bar into output
func NewMultiProgressBar(output io.Writer, name string, total int64) *MultiProgressBar {
	progress := mpb.New(mpb.WithOutput(output))
	bar := createRowsBar(progress, name, total)
	return &MultiProgressBar{
		progress: progress,
		bar:      bar,
		total:    total,
	}
}

func (mp *MultiProgressBar) IncrBy(n int) {
	mp.bar.IncrBy(n)
}

func (mp *MultiProgressBar) Finish(success bool) {
	if success {
		mp.bar.SetCurrent(mp.total)
	} else {
		mp.bar.Abort(false)
	}
	mp.progress.Wait()
}

func (mp *MultiProgressBar) Type() string {
	return mpbType
}

func newLineBarFiller(filler mpb.BarFiller) mpb.BarFiller {
	return mpb.BarFillerFunc(func(w io.Writer, reqWidth int, st decor.Statistics) {
		if !st.Completed {
			filler.Fill(w, reqWidth, st)
			w.Write([]byte("\n"))
		}
	})
}

//createRowsBar creates progress bar which counts inserted rows
func createRowsBar(p *mpb.Progress, name string, total int64) *mpb.Bar {
	return p.Add(total,
		nil,
		mpb.BarExtender(
			newLineBarFiller(
				mpb.NewBarFiller(
					mpb.BarStyle().Lbound("╢").
						Filler(au.Index(93, "█").String()).Tip("").
						Padding(au.Index(99, "░").String()).Rbound("╟")))),
		mpb.PrependDecorators(
			decor.Name(name),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.OnComplete(
				decor.CountersNoUnit("%d / %d rows", decor.WCSyncWidth), au.Green("✓ done").String(),
			),
		),
	)
}
