package commands

import (
	"os"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/SylverbladeX/ValoriumX-Simulator/src/valorium"
)

//NewRunCmd returns the command that starts a Valorium engine
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run engine",
		PreRunE: loadConfig,
		RunE:    runValorium,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runValorium(cmd *cobra.Command, args []string) error {
	engine := valorium.NewValorium(_config)

	if err := engine.Init(); err != nil {
		_config.Logger().Error("Cannot initialize engine:", err)
		return err
	}

	defer func() {
		if err := engine.Shutdown(); err != nil {
			_config.Logger().Error("Shutdown failed:", err)
		}
	}()

	engine.Run()

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("datadir", _config.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")

	// Network
	cmd.Flags().String("software-version", _config.SoftwareVersion, "Official software version registered with the stencil")
	cmd.Flags().Int("validators", _config.Validators, "Number of simulated validators when no nodes.json is present")
	cmd.Flags().Float64("initial-stake", _config.InitialStake, "Stake every validator starts with")
	cmd.Flags().Float64("initial-rep", _config.InitialRep, "Reputation every validator starts with")

	// Consensus
	cmd.Flags().Duration("round-timeout", _config.RoundTimeout, "Attestation collection timeout")
	cmd.Flags().Int("max-batch", _config.MaxBatch, "Max transactions per block")
	cmd.Flags().Int("redundancy", _config.Redundancy, "Fragment redundancy factor")

	// Service
	cmd.Flags().StringP("service-listen", "s", _config.ServiceAddr, "Listen IP:Port for HTTP service")
	cmd.Flags().Bool("no-service", _config.NoService, "Disable the HTTP service")

	// Store
	cmd.Flags().Bool("store", _config.Store, "Use badgerDB instead of in-mem DB")
	cmd.Flags().String("db", _config.DatabaseDir, "Database directory")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.SetDataDir(_config.DataDir)

	hookLogFiles(_config.Logger().Logger)

	logFields := logrus.Fields{
		"DataDir":         _config.DataDir,
		"ServiceAddr":     _config.ServiceAddr,
		"NoService":       _config.NoService,
		"LogLevel":        _config.LogLevel,
		"SoftwareVersion": _config.SoftwareVersion,
		"Validators":      _config.Validators,
		"InitialStake":    _config.InitialStake,
		"InitialRep":      _config.InitialRep,
		"RoundTimeout":    _config.RoundTimeout,
		"MaxBatch":        _config.MaxBatch,
		"Redundancy":      _config.Redundancy,
		"Store":           _config.Store,
	}

	if _config.Store {
		logFields["DatabaseDir"] = _config.DatabaseDir
	}

	_config.Logger().WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/valorium.toml (.json, .yaml also work)
	viper.SetConfigName("valorium")
	viper.AddConfigPath(_config.DataDir)

	if err := viper.ReadInConfig(); err == nil {
		_config.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Logger().Debugf("No config file found in: %s", _config.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}

// hookLogFiles routes info and debug output to per-level log files, on top of
// the normal output.
func hookLogFiles(logger *logrus.Logger) {
	pathMap := lfshook.PathMap{}

	if _, err := os.OpenFile("valorium_info.log", os.O_CREATE|os.O_WRONLY, 0666); err != nil {
		logger.Info("Failed to open valorium_info.log file, using default stderr")
	} else {
		pathMap[logrus.InfoLevel] = "valorium_info.log"
	}

	if _, err := os.OpenFile("valorium_debug.log", os.O_CREATE|os.O_WRONLY, 0666); err != nil {
		logger.Info("Failed to open valorium_debug.log file, using default stderr")
	} else {
		pathMap[logrus.DebugLevel] = "valorium_debug.log"
	}

	logger.Hooks.Add(lfshook.NewHook(
		pathMap,
		&logrus.TextFormatter{},
	))
}
