package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mektebapp/go-mekteb-client/attendance"
	"github.com/mektebapp/go-mekteb-client/auth"
	"github.com/mektebapp/go-mekteb-client/comments"
	"github.com/mektebapp/go-mekteb-client/news"
	"github.com/mektebapp/go-mekteb-client/profile"
	"github.com/mektebapp/go-mekteb-client/students"
	"github.com/mektebapp/go-mekteb-client/users"
)

func (a *app) login(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("login", flag.ContinueOnError)
	username := flags.String("username", "", "account username")
	password := flags.String("password", "", "account password")
	if err := flags.Parse(args); err != nil {
		return err
	}

	resp, err := a.auth.Login(ctx, auth.Credentials{Username: *username, Password: *password})
	if err != nil {
		return err
	}
	if err := a.session.Login(resp.AccessToken, resp.RefreshToken, resp.User); err != nil {
		return err
	}

	fmt.Printf("Logged in as %s (%s)\n", resp.User.Username, resp.User.Role)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("register", flag.ContinueOnError)
	firstName := flags.String("first-name", "", "first name")
	lastName := flags.String("last-name", "", "last name")
	username := flags.String("username", "", "account username")
	email := flags.String("email", "", "email address")
	password := flags.String("password", "", "account password")
	role := flags.String("role", string(users.RoleParent), "account role")
	if err := flags.Parse(args); err != nil {
		return err
	}

	resp, err := a.auth.Register(ctx, auth.Registration{
		FirstName: *firstName,
		LastName:  *lastName,
		Username:  *username,
		Email:     *email,
		Password:  *password,
		Role:      users.RoleType(*role),
	})
	if err != nil {
		return err
	}
	if err := a.session.Login(resp.AccessToken, resp.RefreshToken, resp.User); err != nil {
		return err
	}

	fmt.Printf("Registered and logged in as %s\n", resp.User.Username)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	// Server-side logout is best effort, local state always clears.
	_ = a.auth.Logout(ctx)
	if err := a.session.Logout(); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func (a *app) whoami() error {
	user := a.session.User()
	if user == nil {
		fmt.Println("Not logged in")
		return nil
	}
	fmt.Printf("%s <%s> role=%s\n", user.FullName(), user.Email, user.Role)
	return nil
}

func (a *app) studentsCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("students: expected list, add or rm")
	}

	switch args[0] {
	case "list":
		flags := flag.NewFlagSet("students list", flag.ContinueOnError)
		page := flags.Int("page", 1, "page number")
		limit := flags.Int("limit", 10, "page size")
		search := flags.String("search", "", "search term")
		if err := flags.Parse(args[1:]); err != nil {
			return err
		}

		list, pagination, err := a.students.List(ctx, students.ListParams{
			Page: *page, Limit: *limit, Search: *search,
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tGRADE\tPARENT KEY")
		for _, s := range list {
			key := ""
			if s.ParentKey != nil {
				key = *s.ParentKey
			}
			fmt.Fprintf(w, "%d\t%s %s\t%s\t%s\n", s.ID, s.FirstName, s.LastName, s.GradeLevel, key)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if pagination != nil {
			fmt.Printf("page %d/%d (%d students)\n",
				pagination.CurrentPage, pagination.TotalPages, pagination.TotalItems)
		}
		return nil

	case "add":
		flags := flag.NewFlagSet("students add", flag.ContinueOnError)
		firstName := flags.String("first-name", "", "first name")
		lastName := flags.String("last-name", "", "last name")
		dateOfBirth := flags.String("dob", "", "date of birth (YYYY-MM-DD)")
		grade := flags.String("grade", "", "grade level")
		if err := flags.Parse(args[1:]); err != nil {
			return err
		}

		student, err := a.students.Create(ctx, students.CreateInput{
			FirstName:   *firstName,
			LastName:    *lastName,
			DateOfBirth: *dateOfBirth,
			GradeLevel:  *grade,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Added student %d", student.ID)
		if student.ParentKey != nil {
			fmt.Printf(" (parent key %s)", *student.ParentKey)
		}
		fmt.Println()
		return nil

	case "rm":
		flags := flag.NewFlagSet("students rm", flag.ContinueOnError)
		id := flags.Int64("id", 0, "student id")
		if err := flags.Parse(args[1:]); err != nil {
			return err
		}
		return a.students.Delete(ctx, *id)

	default:
		return fmt.Errorf("students: unknown subcommand %q", args[0])
	}
}

func (a *app) attendanceCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("attendance: expected mark, list or summary")
	}

	today := time.Now().Format("2006-01-02")

	switch args[0] {
	case "mark":
		flags := flag.NewFlagSet("attendance mark", flag.ContinueOnError)
		studentID := flags.Int64("student", 0, "student id")
		date := flags.String("date", today, "date (YYYY-MM-DD)")
		status := flags.String("status", string(attendance.StatusPresent), "PRESENT, ABSENT, LATE or EXCUSED")
		if err := flags.Parse(args[1:]); err != nil {
			return err
		}

		record, err := a.attendance.Create(ctx, attendance.Entry{
			StudentID: *studentID,
			Date:      *date,
			Status:    attendance.Status(*status),
		})
		if err != nil {
			return err
		}
		fmt.Printf("Marked student %d %s on %s\n", record.StudentID, record.Status, record.Date)
		return nil

	case "list":
		flags := flag.NewFlagSet("attendance list", flag.ContinueOnError)
		date := flags.String("date", today, "date (YYYY-MM-DD)")
		if err := flags.Parse(args[1:]); err != nil {
			return err
		}

		records, err := a.attendance.ByDate(ctx, *date)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STUDENT\tGRADE\tSTATUS")
		for _, r := range records {
			fmt.Fprintf(w, "%s %s\t%s\t%s\n", r.StudentFirstName, r.StudentLastName, r.GradeLevel, r.Status)
		}
		return w.Flush()

	case "summary":
		flags := flag.NewFlagSet("attendance summary", flag.ContinueOnError)
		date := flags.String("date", today, "date (YYYY-MM-DD)")
		if err := flags.Parse(args[1:]); err != nil {
			return err
		}

		summary, err := a.attendance.SummaryByDate(ctx, *date)
		if err != nil {
			return err
		}
		totals := summary.Totals
		fmt.Printf("%s: %d students, %d present, %d absent, %d late, %d excused (%.1f%% present)\n",
			*date, totals.TotalStudents, totals.PresentCount, totals.AbsentCount,
			totals.LateCount, totals.ExcusedCount, totals.PresentRate)
		return nil

	default:
		return fmt.Errorf("attendance: unknown subcommand %q", args[0])
	}
}

func (a *app) newsCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("news: expected list or post")
	}

	switch args[0] {
	case "list":
		flags := flag.NewFlagSet("news list", flag.ContinueOnError)
		page := flags.Int("page", 1, "page number")
		limit := flags.Int("limit", 10, "page size")
		if err := flags.Parse(args[1:]); err != nil {
			return err
		}

		items, _, err := a.news.List(ctx, *page, *limit)
		if err != nil {
			return err
		}
		for _, item := range items {
			fmt.Printf("[%d] %s\n", item.ID, item.Title)
			if item.Subtitle != "" {
				fmt.Printf("    %s\n", item.Subtitle)
			}
			fmt.Printf("    %s\n\n", item.Text)
		}
		return nil

	case "post":
		flags := flag.NewFlagSet("news post", flag.ContinueOnError)
		title := flags.String("title", "", "headline")
		text := flags.String("text", "", "body text")
		subtitle := flags.String("subtitle", "", "optional subtitle")
		image := flags.String("image", "", "optional image file to attach")
		if err := flags.Parse(args[1:]); err != nil {
			return err
		}

		item, err := a.news.Create(ctx, news.Input{Title: *title, Text: *text, Subtitle: *subtitle})
		if err != nil {
			return err
		}
		fmt.Printf("Posted announcement %d\n", item.ID)

		if *image != "" {
			file, err := os.Open(*image)
			if err != nil {
				return err
			}
			defer file.Close()

			uploaded, err := a.news.UploadImage(ctx, item.ID, *image, file)
			if err != nil {
				return err
			}
			fmt.Printf("Attached image %d\n", uploaded.ID)
		}
		return nil

	default:
		return fmt.Errorf("news: unknown subcommand %q", args[0])
	}
}

func (a *app) commentsCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("comments: expected list or add")
	}

	switch args[0] {
	case "list":
		flags := flag.NewFlagSet("comments list", flag.ContinueOnError)
		studentID := flags.Int64("student", 0, "student id")
		date := flags.String("date", "", "date (YYYY-MM-DD)")
		if err := flags.Parse(args[1:]); err != nil {
			return err
		}

		list, err := a.comments.List(ctx, comments.ListParams{StudentID: *studentID, Date: *date})
		if err != nil {
			return err
		}
		for _, c := range list {
			fmt.Printf("[%d] %s (%s) on %s\n    %s\n", c.ID, c.AuthorName, c.AuthorRole, c.Date, c.Content)
		}
		return nil

	case "add":
		flags := flag.NewFlagSet("comments add", flag.ContinueOnError)
		studentID := flags.Int64("student", 0, "student id")
		date := flags.String("date", time.Now().Format("2006-01-02"), "date (YYYY-MM-DD)")
		content := flags.String("content", "", "comment text")
		replyTo := flags.Int64("reply-to", 0, "comment id to reply to")
		if err := flags.Parse(args[1:]); err != nil {
			return err
		}

		input := comments.CreateInput{StudentID: *studentID, Content: *content, Date: *date}
		if *replyTo > 0 {
			input.ParentCommentID = replyTo
		}

		comment, err := a.comments.Create(ctx, input)
		if err != nil {
			return err
		}
		fmt.Printf("Added comment %d\n", comment.ID)
		return nil

	default:
		return fmt.Errorf("comments: unknown subcommand %q", args[0])
	}
}

func (a *app) profileCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("profile: expected show or update")
	}

	switch args[0] {
	case "show":
		p, err := a.profile.Current(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s <%s> role=%s\n", p.FirstName, p.LastName, p.Email, p.Role)
		return nil

	case "update":
		flags := flag.NewFlagSet("profile update", flag.ContinueOnError)
		firstName := flags.String("first-name", "", "first name")
		lastName := flags.String("last-name", "", "last name")
		if err := flags.Parse(args[1:]); err != nil {
			return err
		}

		user := a.session.User()
		if user == nil {
			return fmt.Errorf("profile update: not logged in")
		}

		result, err := a.profile.Update(ctx, user.ID, profile.UpdateInput{
			FirstName: *firstName,
			LastName:  *lastName,
		})
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil

	default:
		return fmt.Errorf("profile: unknown subcommand %q", args[0])
	}
}

func (a *app) connect(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("connect", flag.ContinueOnError)
	key := flags.String("key", "", "parent key handed out by the school")
	if err := flags.Parse(args); err != nil {
		return err
	}

	result, err := a.parents.Connect(ctx, *key)
	if err != nil {
		return err
	}
	if result.Student != nil {
		fmt.Printf("Connected to %s %s\n", result.Student.FirstName, result.Student.LastName)
	} else {
		fmt.Println(result.Message)
	}
	return nil
}
