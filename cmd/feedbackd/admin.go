package main

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mind-engage/feedbackbank/internal/seed"
	"github.com/mind-engage/feedbackbank/internal/storage"
)

var (
	seedFile     string
	seedSnapshot string
	seedForce    bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbh, drv, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer dbh.Close()
		logger.Info("schema up to date", zap.String("driver", string(drv)))
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import modules, questions and elements from a YAML bank file",
	RunE: func(cmd *cobra.Command, args []string) error {
		bank, err := loadBank()
		if err != nil {
			return err
		}
		dbh, _, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer dbh.Close()

		svc, _ := newService(dbh)
		res, err := seed.Import(cmd.Context(), svc, bank, seedForce, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d modules, %d questions, %d elements\n",
			res.Modules, res.Questions, res.Elements)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a YAML snapshot of the bank to the snapshot directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbh, _, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer dbh.Close()

		svc, _ := newService(dbh)
		bank, err := seed.Export(cmd.Context(), svc)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := seed.Encode(&buf, bank); err != nil {
			return err
		}
		store, err := snapshotStore()
		if err != nil {
			return err
		}
		key, err := store.Put("bank-"+time.Now().UTC().Format("20060102T150405Z")+".yaml", &buf)
		if err != nil {
			return err
		}
		logger.Info("snapshot written", zap.String("key", key), zap.Int("modules", len(bank.Modules)))
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List snapshot keys usable with seed --snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := snapshotStore()
		if err != nil {
			return err
		}
		keys, err := store.List()
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
		return nil
	},
}

func snapshotStore() (storage.BlobStore, error) {
	return storage.NewFSStore(cfg.SnapshotDir)
}

// loadBank reads --snapshot from the snapshot store, or --file otherwise.
func loadBank() (seed.Bank, error) {
	if seedSnapshot == "" {
		return seed.ParseFile(seedFile)
	}
	store, err := snapshotStore()
	if err != nil {
		return seed.Bank{}, err
	}
	rc, err := store.Get(seedSnapshot)
	if err != nil {
		return seed.Bank{}, err
	}
	defer rc.Close()
	return seed.Parse(rc)
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "feedback-bank.yaml", "YAML bank file")
	seedCmd.Flags().StringVar(&seedSnapshot, "snapshot", "", "Snapshot key from `export` (overrides --file)")
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "Import even when modules already exist")
}
