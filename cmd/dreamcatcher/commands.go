package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dreamcatcher/internal/app"
	"dreamcatcher/internal/devtools"
	"dreamcatcher/internal/journal"
)

func init() {
	// record
	var in journal.DreamInput
	recordCmd := &cobra.Command{
		Use:   "record TITLE",
		Short: "Record a dream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Title = args[0]
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				d, err := a.RecordDream(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "recorded %s on %s\n", styles.Accent.Render(d.ID), d.Date)
				return nil
			})
		},
	}
	recordCmd.Flags().StringVar(&in.Date, "date", "", "Dream date YYYY-MM-DD (defaults to today)")
	recordCmd.Flags().StringVarP(&in.Content, "content", "c", "", "What happened")
	recordCmd.Flags().IntVar(&in.Clarity, "clarity", 3, "Clarity 1-5")
	recordCmd.Flags().IntVar(&in.Lucidity, "lucidity", 1, "Lucidity 1-5")
	recordCmd.Flags().StringVar(&in.Mood, "mood", "", "Mood on waking")
	recordCmd.Flags().StringSliceVarP(&in.Tags, "tag", "t", nil, "Tags (repeatable)")
	rootCmd.AddCommand(recordCmd)

	// dreams
	dreamsCmd := &cobra.Command{
		Use:   "dreams",
		Short: "List recorded dreams, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				renderDreams(cmd.OutOrStdout(), a.Dreams())
				return nil
			})
		},
	}
	rootCmd.AddCommand(dreamsCmd)

	// analyze
	analyzeCmd := &cobra.Command{
		Use:   "analyze DREAM_ID ANALYSIS",
		Short: "Attach an interpretation to a dream",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				_, err := a.AnalyzeDream(ctx, args[0], args[1])
				return err
			})
		},
	}
	rootCmd.AddCommand(analyzeCmd)

	// status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show level, streaks and today's quests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				renderStatus(cmd.OutOrStdout(), a.Status())
				return nil
			})
		},
	}
	rootCmd.AddCommand(statusCmd)

	// quests
	questsCmd := &cobra.Command{
		Use:   "quests",
		Short: "List today's quests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				renderQuests(cmd.OutOrStdout(), a.DailyQuests())
				return nil
			})
		},
	}
	rootCmd.AddCommand(questsCmd)

	// achievements
	achievementsCmd := &cobra.Command{
		Use:   "achievements",
		Short: "List achievements and unlock times",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				renderAchievements(cmd.OutOrStdout(), a.Achievements())
				return nil
			})
		},
	}
	rootCmd.AddCommand(achievementsCmd)
}

func init() {
	totemCmd := &cobra.Command{Use: "totem", Short: "Totem operations"}
	var totemDesc string
	totemAddCmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a reality-check totem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				t, err := a.AddTotem(ctx, args[0], totemDesc)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "totem %s added\n", styles.Accent.Render(t.Name))
				return nil
			})
		},
	}
	totemAddCmd.Flags().StringVar(&totemDesc, "description", "", "What the totem looks like")
	totemCmd.AddCommand(totemAddCmd)
	rootCmd.AddCommand(totemCmd)

	symbolCmd := &cobra.Command{Use: "symbol", Short: "Symbol lexicon operations"}
	var meaning string
	symbolAddCmd := &cobra.Command{
		Use:   "add TERM",
		Short: "Add a symbol to the lexicon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				s, err := a.AddSymbol(ctx, args[0], meaning)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s seen %d time(s)\n", styles.Accent.Render(s.Term), s.Occurrences)
				return nil
			})
		},
	}
	symbolAddCmd.Flags().StringVarP(&meaning, "meaning", "m", "", "Personal meaning")
	symbolCmd.AddCommand(symbolAddCmd)

	symbolLookupCmd := &cobra.Command{
		Use:   "lookup TERM",
		Short: "Find the closest lexicon entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				s, ok := a.LookupSymbol(args[0])
				if !ok {
					return fmt.Errorf("no symbol close to %q", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", styles.Accent.Render(s.Term), s.Meaning)
				return nil
			})
		},
	}
	symbolCmd.AddCommand(symbolLookupCmd)
	rootCmd.AddCommand(symbolCmd)

	var sleep app.SleepInput
	sleepCmd := &cobra.Command{
		Use:   "sleep HOURS",
		Short: "Log a night of sleep",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hours, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("hours %q: %w", args[0], err)
			}
			sleep.Hours = hours
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				_, err := a.LogSleep(ctx, sleep)
				return err
			})
		},
	}
	sleepCmd.Flags().StringVar(&sleep.Date, "date", "", "Night date YYYY-MM-DD (defaults to today)")
	sleepCmd.Flags().IntVarP(&sleep.Quality, "quality", "q", 3, "Quality 1-5")
	sleepCmd.Flags().StringVar(&sleep.Notes, "notes", "", "Notes")
	rootCmd.AddCommand(sleepCmd)

	var cards []string
	oracleCmd := &cobra.Command{
		Use:   "oracle QUESTION ANSWER",
		Short: "Save an oracle reading",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				_, err := a.ConsultOracle(ctx, args[0], args[1], cards)
				return err
			})
		},
	}
	oracleCmd.Flags().StringSliceVar(&cards, "card", nil, "Drawn cards (repeatable)")
	rootCmd.AddCommand(oracleCmd)
}

func init() {
	var out string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				b, err := a.Export(ctx)
				if err != nil {
					return err
				}
				if out == "" || out == "-" {
					return app.WriteBackup(cmd.OutOrStdout(), b)
				}
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				if err := app.WriteBackup(f, b); err != nil {
					_ = f.Close()
					return err
				}
				return f.Close()
			})
		},
	}
	exportCmd.Flags().StringVarP(&out, "out", "o", "", "Output file (defaults to stdout)")
	rootCmd.AddCommand(exportCmd)

	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the journal with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			b, err := app.ReadBackup(f)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Import(ctx, b); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d keys from %s\n", len(b.Records), args[0])
				return nil
			})
		},
	}
	rootCmd.AddCommand(importCmd)

	seeds := devtools.NewManager()
	seedCmd := &cobra.Command{
		Use:       "seed SCENARIO",
		Short:     "Fill the journal with a sample scenario (" + strings.Join(seeds.Names(), ", ") + ")",
		Args:      cobra.ExactArgs(1),
		ValidArgs: seeds.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := seeds.Apply(ctx, a, args[0], time.Now()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %s: %s\n", args[0], seeds.Resolve(args[0]).Description)
				return nil
			})
		},
	}
	rootCmd.AddCommand(seedCmd)
}

func init() {
	// dream media
	for _, media := range []struct {
		use, short string
		attach     func(a *app.App, ctx context.Context, id, url string) (journal.Dream, error)
	}{
		{"image DREAM_ID URL", "Attach a generated image to a dream", (*app.App).AttachImage},
		{"video DREAM_ID URL", "Attach a generated video to a dream", (*app.App).AttachVideo},
	} {
		attach := media.attach
		rootCmd.AddCommand(&cobra.Command{
			Use:   media.use,
			Short: media.short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(ctx context.Context, a *app.App) error {
					_, err := attach(a, ctx, args[0], args[1])
					return err
				})
			},
		})
	}

	incubateCmd := &cobra.Command{Use: "incubate", Short: "Dream incubation sessions"}
	incubateCmd.AddCommand(&cobra.Command{
		Use:   "start INTENTION",
		Short: "Start an incubation session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				s, err := a.StartIncubation(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "incubating %s\n", styles.Accent.Render(s.ID))
				return nil
			})
		},
	})
	var resultDream string
	completeCmd := &cobra.Command{
		Use:   "complete SESSION_ID",
		Short: "Close an incubation session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				_, err := a.CompleteIncubation(ctx, args[0], resultDream)
				return err
			})
		},
	}
	completeCmd.Flags().StringVar(&resultDream, "dream", "", "Dream that answered the intention")
	incubateCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(incubateCmd)

	odysseyCmd := &cobra.Command{Use: "odyssey", Short: "Multi-step dream odysseys"}
	var steps []string
	odysseyStartCmd := &cobra.Command{
		Use:   "start TITLE",
		Short: "Start an odyssey",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				o, err := a.StartOdyssey(ctx, args[0], steps)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "odyssey %s with %d steps\n", styles.Accent.Render(o.ID), len(o.Steps))
				return nil
			})
		},
	}
	odysseyStartCmd.Flags().StringSliceVar(&steps, "step", nil, "Steps in order (repeatable)")
	_ = odysseyStartCmd.MarkFlagRequired("step")
	odysseyCmd.AddCommand(odysseyStartCmd)
	odysseyCmd.AddCommand(&cobra.Command{
		Use:   "advance ODYSSEY_ID",
		Short: "Move an odyssey to its next step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				o, err := a.AdvanceOdyssey(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "step %d/%d\n", o.Current, len(o.Steps))
				return nil
			})
		},
	})
	rootCmd.AddCommand(odysseyCmd)

	seriesCmd := &cobra.Command{Use: "series", Short: "Dream series"}
	seriesCmd.AddCommand(&cobra.Command{
		Use:   "create TITLE [DREAM_ID...]",
		Short: "Group dreams into a series",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				s, err := a.CreateSeries(ctx, args[0], args[1:]...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "series %s\n", styles.Accent.Render(s.ID))
				return nil
			})
		},
	})
	seriesCmd.AddCommand(&cobra.Command{
		Use:   "add SERIES_ID DREAM_ID",
		Short: "Add a dream to a series",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				_, err := a.AddToSeries(ctx, args[0], args[1])
				return err
			})
		},
	})
	rootCmd.AddCommand(seriesCmd)

	var readingCards []string
	var question string
	readingCmd := &cobra.Command{
		Use:   "reading KIND ANSWER",
		Short: "Save a reading of any kind",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				_, err := a.SaveReading(ctx, args[0], question, args[1], readingCards)
				return err
			})
		},
	}
	readingCmd.Flags().StringVar(&question, "question", "", "Question asked")
	readingCmd.Flags().StringSliceVar(&readingCards, "card", nil, "Drawn cards (repeatable)")
	rootCmd.AddCommand(readingCmd)
}
