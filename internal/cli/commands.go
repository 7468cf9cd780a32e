package cli

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hrms-backend/internal/activity"
	"hrms-backend/internal/hr"
	"hrms-backend/internal/stats"
)

func newTransitionCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:     "transition <kind> <id> <status>",
		Short:   "Set an entity status and apply the cascade",
		Example: "  hrops transition application 1 COMPLETED",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := hr.ParseKind(args[0])
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("id must be an integer: %q", args[1])
			}
			res, err := appFrom(cmd).Cascade.ApplyStatusTransition(cmd.Context(), kind, id, args[2])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if v.GetBool("json") {
				return printJSON(w, res)
			}
			if !res.Changed {
				fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%s %d already %s; nothing changed", kind, id, res.Status)))
				return nil
			}
			fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s %d: %s -> %s", kind, id, res.Previous, res.Status)))
			printField(w, "Revision", res.Revision)
			for _, a := range res.Affected {
				printField(w, "Affected", a)
			}
			for _, e := range res.Activity {
				printField(w, "Activity", e.Title+" ("+e.Description+")")
			}
			return nil
		},
	}
}

func newStatsCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := appFrom(cmd).Store.View(cmd.Context())
			if err != nil {
				return err
			}
			d := stats.Dashboard(snap)

			w := cmd.OutOrStdout()
			if v.GetBool("json") {
				return printJSON(w, d)
			}
			fmt.Fprintln(w, titleStyle.Render("Dashboard"))
			printField(w, "Pending applications", d.PendingApplications)
			printField(w, "Active candidates", d.ActiveCandidates)
			printField(w, "Open positions", d.AvailablePositions)
			printField(w, "Completed hires", d.CompletedHires)
			printField(w, "Active recruiters", d.RecruitersActive)
			printField(w, "Onboarding in progress", d.OnboardingInProgress)
			printField(w, "Departments", d.Departments)

			statuses := make([]string, 0, len(d.ApplicationsByStatus))
			for s := range d.ApplicationsByStatus {
				statuses = append(statuses, s)
			}
			sort.Strings(statuses)
			fmt.Fprintln(w)
			fmt.Fprintln(w, labelStyle.Render("Applications by status"))
			for _, s := range statuses {
				fmt.Fprintf(w, "  %s %d\n", valueStyle.Render(s), d.ApplicationsByStatus[s])
			}
			return nil
		},
	}
}

func newDepartmentCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "department [name]",
		Short: "Show recruiter statistics for one department or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := appFrom(cmd).Store.View(cmd.Context())
			if err != nil {
				return err
			}
			var items []stats.DepartmentStats
			if len(args) == 1 {
				d, err := stats.Department(snap, args[0])
				if err != nil {
					return err
				}
				items = []stats.DepartmentStats{d}
			} else {
				items = stats.Departments(snap)
			}

			w := cmd.OutOrStdout()
			if v.GetBool("json") {
				return printJSON(w, items)
			}
			for _, d := range items {
				fmt.Fprintln(w, titleStyle.Render(d.Name))
				if d.Head != "" {
					printField(w, "Head", d.Head)
				}
				printField(w, "Recruiters", d.RecruiterCount)
				printField(w, "Active recruiters", d.ActiveRecruiters)
				printField(w, "Average performance", strconv.FormatFloat(d.Performance, 'f', 2, 64))
				printField(w, "Open positions", d.OpenPositions)
			}
			return nil
		},
	}
}

func newActivityCommand(v *viper.Viper) *cobra.Command {
	var (
		typ   string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "List recent activity, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("limit must be at least 1")
			}
			snap, err := appFrom(cmd).Store.View(cmd.Context())
			if err != nil {
				return err
			}
			items := activity.List(snap, activity.Filter{Type: typ, Limit: limit})

			w := cmd.OutOrStdout()
			if v.GetBool("json") {
				return printJSON(w, items)
			}
			if len(items) == 0 {
				fmt.Fprintln(w, mutedStyle.Render("No activity recorded yet."))
				return nil
			}
			for _, e := range items {
				fmt.Fprintf(w, "%s %s %s\n",
					mutedStyle.Render(e.Timestamp.Local().Format(time.DateTime)),
					labelStyle.Render(e.Title),
					valueStyle.Render(e.Description))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "only entries of this type")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")
	return cmd
}

func newDailyCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "daily",
		Short: "Run the daily operations pass and print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := appFrom(cmd).DailyOps.Run(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if v.GetBool("json") {
				return printJSON(w, out)
			}
			fmt.Fprintln(w, titleStyle.Render("Daily report "+out.Report.Date))
			printField(w, "Pending applications", out.Report.Summary.PendingApplications)
			printField(w, "New applications today", out.Report.NewApplicationsToday)
			printField(w, "Activity today", out.Report.ActivityToday)
			for _, a := range out.StaleAlerts {
				printField(w, "Stale", fmt.Sprintf("%s - %s (%d days)", a.CandidateName, a.Title, a.AgeDays))
			}
			for _, name := range out.DepartmentsRefreshed {
				printField(w, "Refreshed", name)
			}
			return nil
		},
	}
}
