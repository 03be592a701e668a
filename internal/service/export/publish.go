package export

import (
	"errors"
	"fmt"
	"os"
)

// pending is a finished file staged beside its destination.
type pending struct {
	work  string
	final string
}

// published remembers how to undo one move.
type published struct {
	pending
	backup string // previous file at final, empty when there was none
}

// publish moves every staged file into place. If any move fails, the files
// already moved are put back the way they were: earlier artifacts are
// restored and new ones removed.
func publish(files []pending) (err error) {
	var done []published
	defer func() {
		if err == nil {
			for _, d := range done {
				if d.backup != "" {
					os.Remove(d.backup)
				}
			}
			return
		}
		for i := len(done) - 1; i >= 0; i-- {
			err = errors.Join(err, done[i].undo())
		}
	}()

	for _, f := range files {
		d := published{pending: f}
		if info, statErr := os.Lstat(f.final); statErr == nil && info.Mode().IsRegular() {
			d.backup = f.work + ".prev"
			if err := os.Rename(f.final, d.backup); err != nil {
				return fmt.Errorf("keep previous %s: %w", f.final, err)
			}
		}
		if err := os.Rename(f.work, f.final); err != nil {
			if d.backup != "" {
				err = errors.Join(err, os.Rename(d.backup, f.final))
			}
			return err
		}
		done = append(done, d)
	}
	return nil
}

func (d published) undo() error {
	if d.backup != "" {
		return os.Rename(d.backup, d.final)
	}
	if err := os.Remove(d.final); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
