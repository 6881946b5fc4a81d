// Package main provides the CLI entrypoint for annalist.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pyrrhio/annalist/internal/config"
	"github.com/pyrrhio/annalist/internal/fighter"
	"github.com/pyrrhio/annalist/internal/gamedata"
	"github.com/pyrrhio/annalist/internal/importer"
	"github.com/pyrrhio/annalist/internal/model"
	"github.com/pyrrhio/annalist/internal/rank"
	"github.com/pyrrhio/annalist/internal/scan"
	"github.com/pyrrhio/annalist/internal/store"
)

var (
	dbPath  string
	verbose bool

	scanForce      bool
	scanWorkers    int
	scanRecursive  bool
	scanIndexLines bool

	charactersAll bool

	mergeInto string

	setRanksValue int64
	setRanksMode  string
	setRanksUntil string

	searchCharacter string
	searchLimit     int

	resetYes bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "annalist",
		Short:         "Clan Lord log parser and character statistics",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "database path")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose logging")

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newScanFilesCmd())
	rootCmd.AddCommand(newCharactersCmd())
	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newKillsCmd())
	rootCmd.AddCommand(newTrainersCmd())
	rootCmd.AddCommand(newLastysCmd())
	rootCmd.AddCommand(newPetsCmd())
	rootCmd.AddCommand(newCoinsCmd())
	rootCmd.AddCommand(newMergeCmd())
	rootCmd.AddCommand(newUnmergeCmd())
	rootCmd.AddCommand(newSetRanksCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newTrainerCatalogCmd())
	rootCmd.AddCommand(newFighterStatsCmd())

	return rootCmd
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openStore() (*store.Store, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
}

func findCharacter(ctx context.Context, st *store.Store, name string) (*model.Character, error) {
	c, err := st.GetCharacterByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("no character named %q; run: annalist characters", name)
	}
	return c, err
}

func scanOptions(cmd *cobra.Command) (scan.Options, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return scan.Options{}, fmt.Errorf("failed to load config: %w", err)
	}
	if !cmd.Flags().Changed("workers") && fileCfg.Scan.Workers != nil {
		scanWorkers = *fileCfg.Scan.Workers
	}
	if !cmd.Flags().Changed("index-lines") && fileCfg.Scan.IndexLines != nil {
		scanIndexLines = *fileCfg.Scan.IndexLines
	}
	return scan.Options{
		Force:      scanForce,
		Workers:    scanWorkers,
		IndexLines: scanIndexLines,
	}, nil
}

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [folder]",
		Short: "Scan a character's log folder",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScanCmd,
	}
	cmd.Flags().BoolVar(&scanForce, "force", false, "re-process files already scanned")
	cmd.Flags().IntVar(&scanWorkers, "workers", 0, "parallel parse workers (default: all CPUs)")
	cmd.Flags().BoolVar(&scanRecursive, "recursive", false, "discover character folders under the path")
	cmd.Flags().BoolVar(&scanIndexLines, "index-lines", false, "add lines to the full-text index")
	return cmd
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	opts, err := scanOptions(cmd)
	if err != nil {
		return err
	}

	dir := ""
	if len(args) == 1 {
		dir = args[0]
	} else {
		fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if fileCfg.Scan.LogRoot != nil {
			dir = *fileCfg.Scan.LogRoot
			scanRecursive = true
		}
	}
	if dir == "" {
		return fmt.Errorf("no folder given and no log-root configured")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	opts.Progress = func(path string, done, total int) {
		if verbose {
			logErrf("[%d/%d] %s\n", done, total, path)
		}
	}
	sc, err := scan.New(st, newLogger(), opts)
	if err != nil {
		return err
	}

	var res *scan.Result
	if scanRecursive {
		res, err = sc.ScanRecursive(cmd.Context(), dir)
	} else {
		res, err = sc.ScanFolder(cmd.Context(), dir)
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	return printScanResult(cmd, res)
}

func newScanFilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan-files <file>...",
		Short: "Scan individual log files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runScanFilesCmd,
	}
	cmd.Flags().BoolVar(&scanForce, "force", false, "re-process files already scanned")
	cmd.Flags().IntVar(&scanWorkers, "workers", 0, "parallel parse workers (default: all CPUs)")
	cmd.Flags().BoolVar(&scanIndexLines, "index-lines", false, "add lines to the full-text index")
	return cmd
}

func runScanFilesCmd(cmd *cobra.Command, args []string) error {
	opts, err := scanOptions(cmd)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	sc, err := scan.New(st, newLogger(), opts)
	if err != nil {
		return err
	}
	res, err := sc.ScanFiles(cmd.Context(), args)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	return printScanResult(cmd, res)
}

func printScanResult(cmd *cobra.Command, res *scan.Result) error {
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Scanned %d files (%d skipped, %d errors)\n",
		res.FilesScanned, res.Skipped, res.Errors); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "Parsed %d lines, %d events\n",
		res.LinesParsed, res.EventsFound); err != nil {
		return err
	}
	if len(res.Characters) > 0 {
		if _, err := fmt.Fprintf(out, "Characters: %s\n",
			strings.Join(res.Characters, ", ")); err != nil {
			return err
		}
	}
	return nil
}

func newCharactersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "characters",
		Short: "List tracked characters",
		Args:  cobra.NoArgs,
		RunE:  runCharactersCmd,
	}
	cmd.Flags().BoolVar(&charactersAll, "all", false, "include merged characters")
	return cmd
}

func runCharactersCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	chars, err := st.ListCharacters(cmd.Context(), charactersAll)
	if err != nil {
		return err
	}
	if len(chars) == 0 {
		return fmt.Errorf("no characters yet; run: annalist scan <folder>")
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPROFESSION\tCOIN LEVEL\tLOGINS\tDEATHS\tSTART")
	for _, c := range chars {
		name := c.Name
		if c.MergedInto != 0 {
			name += " (merged)"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
			name, c.Profession, c.CoinLevel, c.Logins, c.Deaths, c.StartDate)
	}
	return w.Flush()
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <character>",
		Short: "Show a character's full counters",
		Args:  cobra.ExactArgs(1),
		RunE:  runSummaryCmd,
	}
}

func runSummaryCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	c, err := findCharacter(ctx, st, args[0])
	if err != nil {
		return err
	}
	kills, err := st.ListKills(ctx, c.ID)
	if err != nil {
		return err
	}
	var solo, assisted int64
	for _, k := range kills {
		solo += k.TotalSolo()
		assisted += k.TotalAssisted()
	}
	highCreature, highScore, hasHigh, err := st.HighestKill(ctx, c.ID)
	if err != nil {
		return err
	}
	nemCreature, nemCount, hasNem, err := st.Nemesis(ctx, c.ID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Name\t%s\n", c.Name)
	fmt.Fprintf(w, "Profession\t%s\n", c.Profession)
	fmt.Fprintf(w, "Coin level\t%d\n", c.CoinLevel)
	fmt.Fprintf(w, "Start date\t%s\n", c.StartDate)
	fmt.Fprintf(w, "Logins\t%d\n", c.Logins)
	fmt.Fprintf(w, "Departs\t%d\n", c.Departs)
	fmt.Fprintf(w, "Deaths\t%d\n", c.Deaths)
	fmt.Fprintf(w, "Esteem\t%d\n", c.Esteem)
	fmt.Fprintf(w, "Kills (solo/assisted)\t%d / %d\n", solo, assisted)
	if hasHigh {
		fmt.Fprintf(w, "Highest kill\t%s (%dc)\n", highCreature, highScore)
	}
	if hasNem {
		fmt.Fprintf(w, "Nemesis\t%s (killed by %d)\n", nemCreature, nemCount)
	}
	fmt.Fprintf(w, "Coins picked up\t%d\n", c.CoinsPickedUp)
	fmt.Fprintf(w, "Chest coins\t%d\n", c.ChestCoins)
	fmt.Fprintf(w, "Bounty coins\t%d\n", c.BountyCoins)
	fmt.Fprintf(w, "Casino won/lost\t%d / %d\n", c.CasinoWon, c.CasinoLost)
	fmt.Fprintf(w, "Furs\t%d (worth %dc)\n", c.FurCoins, c.FurWorth)
	fmt.Fprintf(w, "Mandibles\t%d (worth %dc)\n", c.MandibleCoins, c.MandibleWorth)
	fmt.Fprintf(w, "Blood\t%d (worth %dc)\n", c.BloodCoins, c.BloodWorth)
	fmt.Fprintf(w, "Bells used/broken\t%d / %d\n", c.BellsUsed, c.BellsBroken)
	fmt.Fprintf(w, "Chains used/broken\t%d / %d\n", c.ChainsUsed, c.ChainsBroken)
	fmt.Fprintf(w, "Shieldstones used/broken\t%d / %d\n", c.ShieldstonesUsed, c.ShieldstonesBroken)
	fmt.Fprintf(w, "Ethereal portals\t%d\n", c.EtherealPortals)
	fmt.Fprintf(w, "Portal stones broken\t%d\n", c.PortalStonesBroken)
	fmt.Fprintf(w, "Karma good/bad\t%d / %d\n", c.GoodKarma, c.BadKarma)
	fmt.Fprintf(w, "Untrainings\t%d\n", c.Untrainings)
	return w.Flush()
}

func newKillsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kills <character>",
		Short: "Show per-creature kill counts",
		Args:  cobra.ExactArgs(1),
		RunE:  runKillsCmd,
	}
}

func runKillsCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	c, err := findCharacter(ctx, st, args[0])
	if err != nil {
		return err
	}
	kills, err := st.ListKills(ctx, c.ID)
	if err != nil {
		return err
	}
	sort.Slice(kills, func(i, j int) bool {
		return kills[i].TotalAll() > kills[j].TotalAll()
	})

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CREATURE\tSOLO\tASSISTED\tKILLED BY\tVALUE\tFIRST\tLAST")
	for _, k := range kills {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			k.CreatureName, k.TotalSolo(), k.TotalAssisted(), k.KilledBy,
			k.CreatureValue, k.DateFirst, k.DateLast)
	}
	return w.Flush()
}

func newTrainersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trainers <character>",
		Short: "Show trainer ranks",
		Args:  cobra.ExactArgs(1),
		RunE:  runTrainersCmd,
	}
}

func runTrainersCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	c, err := findCharacter(ctx, st, args[0])
	if err != nil {
		return err
	}
	records, err := st.ListTrainers(ctx, c.ID)
	if err != nil {
		return err
	}
	table, err := gamedata.Trainers()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRAINER\tPROFESSION\tRANKS\tADJUST\tEFFECTIVE\tMODE\tLAST RANK")
	for _, t := range records {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			t.TrainerName, table.Profession(t.TrainerName),
			t.Ranks, t.ModifiedRanks, rank.Effective(t), t.RankMode, t.DateOfLastRank)
	}
	return w.Flush()
}

func newLastysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lastys <character>",
		Short: "Show creature studies",
		Args:  cobra.ExactArgs(1),
		RunE:  runLastysCmd,
	}
}

func runLastysCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	c, err := findCharacter(ctx, st, args[0])
	if err != nil {
		return err
	}
	lastys, err := st.ListLastys(ctx, c.ID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CREATURE\tTYPE\tMESSAGES\tSTATUS\tFIRST\tLAST")
	for _, l := range lastys {
		status := "in progress"
		switch {
		case l.Finished:
			status = "finished"
		case l.AbandonedDate != "":
			status = "abandoned " + l.AbandonedDate
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			l.CreatureName, l.LastyType, l.MessageCount, status,
			l.FirstSeenDate, l.LastSeenDate)
	}
	return w.Flush()
}

func newPetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pets <character>",
		Short: "Show befriended creatures",
		Args:  cobra.ExactArgs(1),
		RunE:  runPetsCmd,
	}
}

func runPetsCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	c, err := findCharacter(ctx, st, args[0])
	if err != nil {
		return err
	}
	pets, err := st.ListPets(ctx, c.ID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, p := range pets {
		if _, err := fmt.Fprintln(out, p.PetName); err != nil {
			return err
		}
	}
	return nil
}

func newCoinsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coins <character>",
		Short: "Recalculate and show the coin level",
		Args:  cobra.ExactArgs(1),
		RunE:  runCoinsCmd,
	}
}

func runCoinsCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	c, err := findCharacter(ctx, st, args[0])
	if err != nil {
		return err
	}
	records, err := st.ListTrainers(ctx, c.ID)
	if err != nil {
		return err
	}
	level, err := st.RecalcCoinLevel(ctx, c.ID)
	if err != nil {
		return err
	}

	var trained, adjusted, applied int64
	for _, t := range records {
		trained += t.Ranks
		adjusted += t.ModifiedRanks
		applied += t.ApplyLearningRanks
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Coin level\t%d\n", level)
	fmt.Fprintf(w, "Trained ranks\t%d\n", trained)
	fmt.Fprintf(w, "Adjustments\t%d\n", adjusted)
	fmt.Fprintf(w, "Apply-learning ranks\t%d\n", applied)
	return w.Flush()
}

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge --into <target> <source>...",
		Short: "Fold alt characters into a primary",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runMergeCmd,
	}
	cmd.Flags().StringVar(&mergeInto, "into", "", "target character name")
	if err := cmd.MarkFlagRequired("into"); err != nil {
		panic(err)
	}
	return cmd
}

func runMergeCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	target, err := findCharacter(ctx, st, mergeInto)
	if err != nil {
		return err
	}
	sourceIDs := make([]int64, 0, len(args))
	for _, name := range args {
		src, err := findCharacter(ctx, st, name)
		if err != nil {
			return err
		}
		sourceIDs = append(sourceIDs, src.ID)
	}

	if err := st.Merge(ctx, sourceIDs, target.ID); err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Merged %s into %s\n",
		strings.Join(args, ", "), target.Name)
	return err
}

func newUnmergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unmerge <source>",
		Short: "Undo a merge, restoring the source character",
		Args:  cobra.ExactArgs(1),
		RunE:  runUnmergeCmd,
	}
}

func runUnmergeCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	// The source is hidden, so look it up among merged characters.
	chars, err := st.ListCharacters(ctx, true)
	if err != nil {
		return err
	}
	var src *model.Character
	for _, c := range chars {
		if strings.EqualFold(c.Name, args[0]) {
			src = c
			break
		}
	}
	if src == nil {
		return fmt.Errorf("no character named %q", args[0])
	}

	stale, err := st.Unmerge(ctx, src.ID)
	if err != nil {
		return fmt.Errorf("unmerge failed: %w", err)
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Unmerged %s\n", src.Name); err != nil {
		return err
	}
	if stale {
		if _, err := fmt.Fprintln(out,
			"Warning: the primary was scanned after the merge; counts may not match the pre-merge state exactly."); err != nil {
			return err
		}
	}
	return nil
}

func newSetRanksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-ranks <character> <trainer>",
		Short: "Adjust or override a trainer's ranks",
		Args:  cobra.ExactArgs(2),
		RunE:  runSetRanksCmd,
	}
	cmd.Flags().Int64Var(&setRanksValue, "ranks", 0, "adjustment or override value")
	cmd.Flags().StringVar(&setRanksMode, "mode", model.RankModeModifier,
		"modifier, override, or override_until_date")
	cmd.Flags().StringVar(&setRanksUntil, "until", "", "override cutoff date (YYYY-MM-DD)")
	return cmd
}

func runSetRanksCmd(cmd *cobra.Command, args []string) error {
	if setRanksMode == model.RankModeOverrideUntilDate && setRanksUntil == "" {
		return fmt.Errorf("--until is required with mode %s", model.RankModeOverrideUntilDate)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	c, err := findCharacter(ctx, st, args[0])
	if err != nil {
		return err
	}
	if err := st.SetTrainerAdjustment(ctx, c.ID, args[1], setRanksValue, setRanksMode, setRanksUntil); err != nil {
		return err
	}
	level, err := st.RecalcCoinLevel(ctx, c.ID)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated %s for %s (coin level now %d)\n",
		args[1], c.Name, level)
	return err
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over indexed log lines",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearchCmd,
	}
	cmd.Flags().StringVar(&searchCharacter, "character", "", "limit to one character")
	cmd.Flags().IntVar(&searchLimit, "limit", 50, "maximum hits")
	return cmd
}

func runSearchCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	var charID int64
	if searchCharacter != "" {
		c, err := findCharacter(ctx, st, searchCharacter)
		if err != nil {
			return err
		}
		charID = c.ID
	}

	hits, err := st.Search(ctx, args[0], charID, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(hits) == 0 {
		return fmt.Errorf("no matches; lines are only searchable after scanning with --index-lines")
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, h := range hits {
		fmt.Fprintf(w, "%s\t%s\n", h.Date, h.Snippet)
	}
	return w.Flush()
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <scribius.sqlite>",
		Short: "Import characters from a legacy Scribius database",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	res, err := importer.Import(cmd.Context(), st, args[0], newLogger())
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out,
		"Imported %d characters (%d skipped): %d trainers, %d kills, %d pets, %d studies\n",
		res.CharactersImported, res.CharactersSkipped,
		res.TrainersImported, res.KillsImported, res.PetsImported, res.LastysImported); err != nil {
		return err
	}
	for _, warning := range res.Warnings {
		logErrf("warning: %s\n", warning)
	}
	return nil
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all stored data",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolVar(&resetYes, "yes", false, "confirm the reset")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	if !resetYes {
		return fmt.Errorf("reset deletes everything; re-run with --yes to confirm")
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := st.Reset(cmd.Context()); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "Database reset")
	return err
}

func newTrainerCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trainer-catalog",
		Short: "List known trainers",
		Args:  cobra.NoArgs,
		RunE:  runTrainerCatalogCmd,
	}
}

func runTrainerCatalogCmd(cmd *cobra.Command, _ []string) error {
	table, err := gamedata.Trainers()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRAINER\tPROFESSION\tMULTIPLIER\tCOMBO")
	for _, t := range table.All() {
		combo := ""
		if t.IsCombo() {
			combo = strings.Join(t.Combo, " + ")
		}
		fmt.Fprintf(w, "%s\t%s\t%.4f\t%s\n", t.Name, t.Profession, t.Multiplier, combo)
	}
	return w.Flush()
}

func newFighterStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fighter-stats <character>",
		Short: "Derive combat stats from trainer ranks",
		Args:  cobra.ExactArgs(1),
		RunE:  runFighterStatsCmd,
	}
}

func runFighterStatsCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	c, err := findCharacter(ctx, st, args[0])
	if err != nil {
		return err
	}
	records, err := st.ListTrainers(ctx, c.ID)
	if err != nil {
		return err
	}
	table, err := gamedata.Trainers()
	if err != nil {
		return err
	}

	ranks := make(map[string]int64, len(records))
	multipliers := make(map[string]float64, len(records))
	for _, t := range records {
		ranks[t.TrainerName] = rank.Effective(t)
		multipliers[t.TrainerName] = table.Multiplier(t.TrainerName)
	}
	stats := fighter.Compute(ranks, multipliers)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Trained ranks\t%d\n", stats.TrainedRanks)
	fmt.Fprintf(w, "Effective ranks\t%.1f\n", stats.EffectiveRanks)
	fmt.Fprintf(w, "Slaughter points\t%d\n", stats.SlaughterPoints)
	fmt.Fprintf(w, "Accuracy\t%d\n", stats.Accuracy)
	fmt.Fprintf(w, "Damage\t%d - %d\n", stats.DamageMin, stats.DamageMax)
	fmt.Fprintf(w, "Offense\t%d\n", stats.Offense)
	fmt.Fprintf(w, "Balance\t%d (regen %d, %.2f/frame)\n", stats.Balance, stats.BalanceRegen, stats.BalancePerFrame)
	fmt.Fprintf(w, "Balance per swing\t%d\n", stats.BalancePerSwing)
	fmt.Fprintf(w, "Health\t%d (regen %d, %.2f/frame)\n", stats.Health, stats.HealthRegen, stats.HealthPerFrame)
	fmt.Fprintf(w, "Defense\t%d\n", stats.Defense)
	fmt.Fprintf(w, "Spirit\t%d (regen %d, %.2f/frame)\n", stats.Spirit, stats.SpiritRegen, stats.SpiritPerFrame)
	fmt.Fprintf(w, "Heal receptivity\t%d\n", stats.HealReceptivity)
	fmt.Fprintf(w, "Shieldstone drain\t%d frames\n", stats.ShieldstoneDrain)
	return w.Flush()
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
