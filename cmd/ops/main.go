// crumbwise-ops backs up and restores the data directory, and runs a
// restore drill that proves a backup round-trips losslessly.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/burnsbert/crumbwise/internal/ops"
)

func main() {
	cmd := &cli.Command{
		Name:  "crumbwise-ops",
		Usage: "backup and restore the crumbwise data directory",
		Commands: []*cli.Command{
			{
				Name:  "backup",
				Usage: "archive the data directory to a tar.gz",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "data-dir", Value: "data", Usage: "path to data directory"},
					&cli.StringFlag{Name: "out", Usage: "output archive path (.tar.gz)"},
				},
				Action: runBackup,
			},
			{
				Name:  "restore",
				Usage: "unpack a backup archive into a directory",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "archive", Required: true, Usage: "input backup archive (.tar.gz)"},
					&cli.StringFlag{Name: "target-dir", Value: "data-restored", Usage: "restore target directory"},
				},
				Action: runRestore,
			},
			{
				Name:  "drill",
				Usage: "backup, restore and verify digests match",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "data-dir", Value: "data", Usage: "path to data directory"},
					&cli.StringFlag{Name: "work-dir", Value: os.TempDir(), Usage: "temporary workspace for drill artifacts"},
				},
				Action: runDrill,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runBackup(ctx context.Context, cmd *cli.Command) error {
	out := cmd.String("out")
	if out == "" {
		ts := time.Now().UTC().Format("20060102T150405Z")
		out = filepath.Join("backups", "crumbwise-"+ts+".tar.gz")
	}
	if err := ops.BackupDataDir(cmd.String("data-dir"), out); err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func runRestore(ctx context.Context, cmd *cli.Command) error {
	return ops.RestoreDataDir(cmd.String("archive"), cmd.String("target-dir"))
}

func runDrill(ctx context.Context, cmd *cli.Command) error {
	dataDir := cmd.String("data-dir")
	workDir := cmd.String("work-dir")

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return err
	}
	ts := time.Now().UTC().Format("20060102T150405Z")
	archive := filepath.Join(workDir, "crumbwise-drill-"+ts+".tar.gz")
	restoreDir := filepath.Join(workDir, "crumbwise-drill-restore-"+ts)

	if err := ops.BackupDataDir(dataDir, archive); err != nil {
		return err
	}
	if err := ops.RestoreDataDir(archive, restoreDir); err != nil {
		return err
	}

	srcDigest, err := ops.DirDigest(dataDir)
	if err != nil {
		return err
	}
	restoreDigest, err := ops.DirDigest(restoreDir)
	if err != nil {
		return err
	}
	if srcDigest != restoreDigest {
		return fmt.Errorf("digest mismatch after restore: src=%s restored=%s", srcDigest, restoreDigest)
	}

	fmt.Println("backup:", archive)
	fmt.Println("restored:", restoreDir)
	fmt.Println("digest:", srcDigest)
	return nil
}
