package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/gosuda/taskhub/internal/domain"
)

// Whatever the assignment pattern, a role user lists exactly the tasks
// assigned to them and every other task reads as missing.
func TestProperty_RoleUserTaskIsolation(t *testing.T) {
	t.Parallel()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20

	properties := gopter.NewProperties(parameters)

	properties.Property("role user only reaches own tasks", prop.ForAll(
		func(owners []int) bool {
			f := newFixture(t)
			ctx := context.Background()
			project := f.project(t, f.acmeAdmin, "Board")

			candidates := []*uuid.UUID{nil, &f.alice.ID, &f.bob.ID}
			mine := map[uuid.UUID]bool{}
			var all []uuid.UUID
			for i, o := range owners {
				task := f.task(t, f.acmeAdmin, project.ID, fmt.Sprintf("t%d", i), candidates[o])
				all = append(all, task.ID)
				if o == 1 {
					mine[task.ID] = true
				}
			}

			list, err := f.svc.Tasks.ListAll(ctx, principal(f.alice), domain.TaskFilter{})
			if err != nil || list.Total != len(mine) {
				return false
			}
			for _, task := range list.Items {
				if !mine[task.ID] {
					return false
				}
			}

			for _, id := range all {
				_, err := f.svc.Tasks.Get(ctx, principal(f.alice), id)
				if mine[id] != (err == nil) {
					return false
				}
				if !mine[id] && !errors.Is(err, domain.ErrNotFound) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(8, gen.IntRange(0, 2)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
