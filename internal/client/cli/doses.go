package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Dose records an intake of the given type.
func (a *App) Dose(ctx context.Context, args []string) error {
	doseType, err := argOrPrompt(args, a.reader, "Dose type", a.out)
	if err != nil {
		return err
	}
	d, err := a.store.RecordDose(ctx, doseType)
	if err != nil {
		return err
	}
	printlnFn("Recorded", d.DoseType, "at", d.TakenAt.Local().Format(time.DateTime))
	return nil
}

// Doses lists recent doses, newest first. An optional argument caps the count.
func (a *App) Doses(ctx context.Context, args []string) error {
	limit := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid count %q", args[0])
		}
		limit = n
	}

	doses, err := a.store.Doses(ctx, limit)
	if err != nil {
		return err
	}
	if len(doses) == 0 {
		printlnFn("No doses recorded yet")
		return nil
	}
	for _, d := range doses {
		printlnFn(fmt.Sprintf("%s  %s", d.TakenAt.Local().Format(time.DateTime), d.DoseType))
	}
	return nil
}
