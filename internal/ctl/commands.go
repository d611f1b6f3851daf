package ctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Inilogicz/Nutri-food/internal/billing"
	"github.com/Inilogicz/Nutri-food/internal/catalog"
	"github.com/Inilogicz/Nutri-food/internal/client"
	"github.com/Inilogicz/Nutri-food/internal/client/consultation"
)

// newFlagSet はエラー時に使い方を出力しないFlagSetを生成する。
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return &UsageError{Message: fmt.Sprintf("%s: %v", fs.Name(), err)}
	}
	return nil
}

func (a *App) register(ctx context.Context, args []string) error {
	var in client.RegisterInput
	fs := newFlagSet("register")
	fs.StringVar(&in.Name, "name", "", "")
	fs.StringVar(&in.Email, "email", "", "")
	fs.StringVar(&in.Password, "password", "", "")
	fs.StringVar(&in.ConfirmPassword, "confirm-password", "", "")
	fs.StringVar(&in.PhoneNumber, "phone", "", "")
	fs.StringVar(&in.DOB, "dob", "", "")
	fs.StringVar(&in.Gender, "gender", "", "")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	user, err := a.api.Register(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "registered %s (id %d). run `nutrictl login` to sign in.\n", user.Email, user.ID)
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	var email, password string
	fs := newFlagSet("login")
	fs.StringVar(&email, "email", "", "")
	fs.StringVar(&password, "password", "", "")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	res, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := a.auth.Login(ctx, res.Token, res.User); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "signed in as %s <%s>\n", res.User.Name, res.User.Email)
	return nil
}

// logout はサーバー側でトークンを失効させてから手元の認証情報を削除する。
// サーバー側の失効に失敗しても手元の認証情報は削除する。
func (a *App) logout(ctx context.Context) error {
	if !a.auth.Current().IsAuthenticated {
		fmt.Fprintln(a.out, "not signed in.")
		return nil
	}
	if err := a.api.Logout(ctx); err != nil {
		fmt.Fprintf(a.out, "warning: server did not revoke the token: %s\n", Describe(err))
	}
	return a.auth.Logout(ctx)
}

func (a *App) whoami() error {
	state := a.auth.Current()
	if !state.IsAuthenticated {
		fmt.Fprintln(a.out, "anonymous")
		return nil
	}
	id := state.Identity
	fmt.Fprintf(a.out, "%s <%s> (id %d)\n", id.Name, id.Email, id.ID)
	return nil
}

func (a *App) meal(ctx context.Context, args []string) error {
	var timeOfDay string
	fs := newFlagSet("meal")
	fs.StringVar(&timeOfDay, "time", "", "")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if timeOfDay == "" {
		timeOfDay = string(catalog.TimeOfDayForHour(a.now().Hour()))
	}

	meal, err := a.api.RecommendedMeal(ctx, timeOfDay)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s recommendation: %s (%s)\n", timeOfDay, meal.Name, meal.Category)
	fmt.Fprintf(a.out, "  %s\n", meal.Description)
	fmt.Fprintf(a.out, "  %d kcal, protein %dg, carbs %dg, fats %dg\n", meal.Calories, meal.Protein, meal.Carbs, meal.Fats)
	if len(meal.Ingredients) > 0 {
		fmt.Fprintf(a.out, "  ingredients: %s\n", strings.Join(meal.Ingredients, ", "))
	}
	return nil
}

func (a *App) dieticians(ctx context.Context) error {
	list, err := a.api.Dieticians(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSPECIALTY\tRATE/MIN\tRATING\tAVAILABLE")
	for _, d := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f (%d)\t%t\n",
			d.ID, d.Name, d.Specialty, billing.FormatCurrency(d.Rate), d.Rating, d.Reviews, d.Available)
	}
	return tw.Flush()
}

func (a *App) chat(ctx context.Context, args []string) error {
	reply, err := a.api.Chat(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "assistant: %s\n", reply.Content)
	return nil
}

func (a *App) balance(ctx context.Context) error {
	balance, err := a.api.Balance(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "balance: %s\n", billing.FormatCurrency(balance))
	return nil
}

func (a *App) topUp(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return &UsageError{Message: "topup: amount is required"}
	}
	amount, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return &UsageError{Message: fmt.Sprintf("topup: invalid amount %q", args[0])}
	}

	balance, err := a.api.TopUp(ctx, amount)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "balance: %s\n", billing.FormatCurrency(balance))
	return nil
}

func (a *App) session(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return &UsageError{Message: "session: subcommand is required"}
	}

	// どのサブコマンドも進行中セッションの採用から始める
	if err := a.engine.Load(ctx); err != nil {
		return err
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "status":
		a.printSession()
		return nil
	case "start":
		if len(rest) != 1 {
			return &UsageError{Message: "session start: dietician id is required"}
		}
		if _, err := a.engine.StartSession(ctx, rest[0]); err != nil {
			return err
		}
		a.printSession()
		return nil
	case "send":
		msg, err := a.engine.SendMessage(ctx, strings.Join(rest, " "))
		if err != nil {
			return err
		}
		acc := a.engine.Accrual()
		fmt.Fprintf(a.out, "sent [%s] %s (accrued %s)\n",
			msg.Timestamp.Local().Format("15:04"), msg.Content, billing.FormatCurrency(acc.Cost))
		return nil
	case "end":
		done, err := a.engine.EndSession(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "session %s completed. charged %s, balance %s\n",
			done.ID, billing.FormatCurrency(done.Cost), billing.FormatCurrency(a.engine.Balance()))
		return nil
	case "watch":
		return a.watch(ctx)
	default:
		return &UsageError{Message: fmt.Sprintf("session: unknown subcommand %q", sub)}
	}
}

// watch は進行中セッションの経過料金をキャンセルされるまで表示し続ける。
func (a *App) watch(ctx context.Context) error {
	if a.engine.State() != consultation.StateActive {
		return errors.New("no active consultation session to watch")
	}

	a.watching.Store(true)
	defer a.watching.Store(false)

	a.printAccrual(a.engine.Recompute())
	<-ctx.Done()
	return nil
}

// onAccrual は再計算のたびに呼ばれ、watch中のみ表示する。
func (a *App) onAccrual(acc billing.Accrual) {
	if a.watching.Load() {
		a.printAccrual(acc)
	}
}

func (a *App) printAccrual(acc billing.Accrual) {
	fmt.Fprintf(a.out, "elapsed %d min, accrued %s, balance %s\n",
		acc.Minutes, billing.FormatCurrency(acc.Cost), billing.FormatCurrency(a.engine.Balance()))
}

func (a *App) printSession() {
	fmt.Fprintf(a.out, "balance: %s\n", billing.FormatCurrency(a.engine.Balance()))

	s := a.engine.Session()
	if s == nil {
		fmt.Fprintln(a.out, "no active session. start one with `nutrictl session start DIETICIAN_ID`.")
		return
	}

	acc := a.engine.Accrual()
	fmt.Fprintf(a.out, "session %s with %s (%s/min): %s\n",
		s.ID, s.DieticianName, billing.FormatCurrency(s.RatePerMinute), s.Status)
	fmt.Fprintf(a.out, "elapsed %d min, accrued %s\n", acc.Minutes, billing.FormatCurrency(acc.Cost))
	for _, m := range a.engine.Messages() {
		fmt.Fprintf(a.out, "  [%s] %s: %s\n", m.Timestamp.Local().Format("15:04"), m.Sender, m.Content)
	}
}

func (a *App) profile(ctx context.Context, args []string) error {
	if len(args) == 0 {
		p, err := a.api.Profile(ctx)
		if err != nil {
			return err
		}
		a.printProfile(p)
		return nil
	}
	if args[0] != "update" {
		return &UsageError{Message: fmt.Sprintf("profile: unknown subcommand %q", args[0])}
	}

	current, err := a.api.Profile(ctx)
	if err != nil {
		return err
	}

	var name, conditions, allergies string
	var height, weight float64
	fs := newFlagSet("profile update")
	fs.StringVar(&name, "name", "", "")
	fs.Float64Var(&height, "height", 0, "")
	fs.Float64Var(&weight, "weight", 0, "")
	fs.StringVar(&conditions, "conditions", "", "")
	fs.StringVar(&allergies, "allergies", "", "")
	if err := parseFlags(fs, args[1:]); err != nil {
		return err
	}

	// 指定されたフラグだけを現在の値に上書きする
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			current.Name = name
		case "height":
			current.Height = height
		case "weight":
			current.Weight = weight
		case "conditions":
			current.HealthConditions = splitList(conditions)
		case "allergies":
			current.FoodAllergies = splitList(allergies)
		}
	})

	updated, err := a.api.UpdateProfile(ctx, *current)
	if err != nil {
		return err
	}
	a.printProfile(updated)
	return nil
}

func (a *App) printProfile(p *client.Profile) {
	fmt.Fprintf(a.out, "%s <%s>\n", p.Name, p.Email)
	if p.DOB != "" {
		fmt.Fprintf(a.out, "  born %s (age %d)\n", p.DOB, p.Age)
	}
	fmt.Fprintf(a.out, "  height %.1f cm, weight %.1f kg\n", p.Height, p.Weight)
	fmt.Fprintf(a.out, "  conditions: %s\n", joinOrNone(p.HealthConditions))
	fmt.Fprintf(a.out, "  allergies: %s\n", joinOrNone(p.FoodAllergies))
	for _, s := range p.SurgicalHistory {
		fmt.Fprintf(a.out, "  surgery: %s (%s) %s\n", s.Type, s.Date, s.Details)
	}
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
