/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotblauer/catfog/store"
	"github.com/spf13/cobra"
)

var optEditRegions bool

// editCmd represents the edit command
var editCmd = &cobra.Command{
	Use:   "edit OP...",
	Short: "Apply a batch of edits to the working snapshot",
	Long: `Edit applies operations in order within one session, so undo and redo
see the edits made earlier in the same batch. The snapshot is saved once
at the end.

Operations:

  erase:WEST,SOUTH,EAST,NORTH       clear every visited pixel in the box
  draw:LNG1,LAT1,LNG2,LAT2          mark the segment between two points visited
  undo                              step back one edit
  redo                              step forward one edit

Examples:

  catfog edit erase:-114.1,46.8,-113.9,46.9
  catfog edit draw:-113.99,46.87,-113.98,46.88 draw:-113.98,46.88,-113.97,46.88 undo
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setDefaultSlog(cmd, args)

		ops := make([]editOp, 0, len(args))
		for _, a := range args {
			op, err := parseEditOp(a)
			if err != nil {
				return err
			}
			ops = append(ops, op)
		}
		st, db, err := openStore(false, optEditRegions)
		if err != nil {
			return err
		}
		defer db.Close()

		for _, op := range ops {
			changed, err := op.apply(st)
			if err != nil {
				return fmt.Errorf("%s: %w", op.raw, err)
			}
			slog.Info("Applied edit", "op", op.raw, "changed", changed, "visited", st.Current().Count())
		}
		return st.Persist(db)
	},
}

type editKind string

const (
	editErase editKind = "erase"
	editDraw  editKind = "draw"
	editUndo  editKind = "undo"
	editRedo  editKind = "redo"
)

var errBadEditOp = errors.New("bad edit op")

type editOp struct {
	raw  string
	kind editKind
	args [4]float64
}

// parseEditOp parses "kind" or "kind:a,b,c,d".
func parseEditOp(s string) (editOp, error) {
	op := editOp{raw: s}
	kind, rest, hasArgs := strings.Cut(s, ":")
	op.kind = editKind(strings.ToLower(kind))
	switch op.kind {
	case editUndo, editRedo:
		if hasArgs {
			return op, fmt.Errorf("%w %q: %s takes no arguments", errBadEditOp, s, kind)
		}
		return op, nil
	case editErase, editDraw:
	default:
		return op, fmt.Errorf("%w %q: unknown operation", errBadEditOp, s)
	}
	fields := strings.Split(rest, ",")
	if !hasArgs || len(fields) != 4 {
		return op, fmt.Errorf("%w %q: want four comma separated numbers", errBadEditOp, s)
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return op, fmt.Errorf("%w %q: %v", errBadEditOp, s, err)
		}
		op.args[i] = v
	}
	return op, nil
}

func (op editOp) apply(st *store.Store) (bool, error) {
	a := op.args
	switch op.kind {
	case editErase:
		return st.ClearBbox(orb.Bound{Min: orb.Point{a[0], a[1]}, Max: orb.Point{a[2], a[3]}})
	case editDraw:
		return st.AddLine(a[0], a[1], a[2], a[3])
	case editUndo:
		_, ok := st.Undo()
		return ok, nil
	case editRedo:
		_, ok := st.Redo()
		return ok, nil
	}
	return false, errBadEditOp
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().BoolVar(&optEditRegions, "regions", false, "tag newly drawn blocks with their country code")
}
