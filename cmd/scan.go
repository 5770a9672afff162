/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/voicetel/pcapgap/internal/capture"
	"github.com/voicetel/pcapgap/internal/pipeline"
	"github.com/voicetel/pcapgap/internal/report"
	"github.com/voicetel/pcapgap/internal/stats"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a capture file for timestamp gaps",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runScanCmd(); err != nil {
			log.Fatal(err)
		}
	},
}

var pcapFile string
var thresholdSeconds float64
var batchSize int
var numWorkers int
var csvOutput string
var noColor bool
var reportInterval time.Duration

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&pcapFile, "pcap", "", "Path to the capture file (.pcap, .pcapng, optionally gzipped)")
	scanCmd.Flags().Float64Var(&thresholdSeconds, "seconds", 0, "Gap threshold in seconds")
	scanCmd.Flags().IntVar(&batchSize, "batchsize", pipeline.DefaultBatchSize, "Packets per batch")
	scanCmd.Flags().IntVar(&numWorkers, "workers", 0, "Number of parallel workers, defaults to CPU count")
	scanCmd.Flags().StringVar(&csvOutput, "csv", "", "Export gaps to a CSV file")
	scanCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	scanCmd.Flags().DurationVar(&reportInterval, "report-interval", 3*time.Second, "Interval to report scan progress")

	scanCmd.MarkFlagRequired("pcap")
	scanCmd.MarkFlagRequired("seconds")
}

func runScanCmd() error {
	zl, err := zap.NewDevelopment(zap.IncreaseLevel(zapcore.InfoLevel))
	if err != nil {
		return err
	}

	if thresholdSeconds <= 0 {
		return fmt.Errorf("gap threshold must be positive, got %v", thresholdSeconds)
	}

	info, err := os.Stat(pcapFile)
	if err != nil {
		return fmt.Errorf("capture file %q: %w", pcapFile, err)
	}

	runID := uuid.New().String()
	zl.Info("starting gap scan",
		zap.String("run_id", runID),
		zap.String("file", pcapFile),
		zap.Int64("size_bytes", info.Size()),
		zap.Float64("threshold_seconds", thresholdSeconds),
		zap.Int("batch_size", batchSize),
		zap.Int("workers", numWorkers))

	src, err := capture.Open(pcapFile)
	if err != nil {
		return err
	}
	defer src.Close()

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGHUP,  // kill -SIGHUP XXXX
		syscall.SIGINT,  // kill -SIGINT XXXX or Ctrl+c
		syscall.SIGQUIT, // kill -SIGQUIT XXXX
	)
	defer stop()

	tracker := stats.NewTracker()
	tracker.Start(reportInterval, zl)

	cfg := pipeline.Config{
		Threshold: time.Duration(thresholdSeconds * float64(time.Second)),
		BatchSize: batchSize,
		Workers:   numWorkers,
	}

	rep, err := pipeline.Run(ctx, cfg, src, zl, tracker)
	tracker.Stop()
	if err != nil {
		return err
	}

	rep.RunID = runID
	rep.File = pcapFile

	console := &report.Console{Out: os.Stdout, NoColor: noColor}
	console.Render(rep)

	if csvOutput != "" && len(rep.Gaps) > 0 {
		if err := report.ExportCSV(csvOutput, rep); err != nil {
			return err
		}
		zl.Info("csv exported", zap.String("path", csvOutput), zap.Int("gaps", len(rep.Gaps)))
	}

	return nil
}
