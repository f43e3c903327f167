// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/luxfi/ids"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/crypto/sha3"

	"github.com/luxfi/collab/config"
)

const (
	ConfigFileKey         = "config-file"
	HTTPHostKey           = "http-host"
	HTTPPortKey           = "http-port"
	AllowedOriginsKey     = "http-allowed-origins"
	ShutdownTimeoutKey    = "http-shutdown-timeout"
	ReadHeaderTimeoutKey  = "http-read-header-timeout"
	CustodyKey            = "custody-address"
	GenesisMaintainersKey = "genesis-maintainers"
	GenesisSupplyKey      = "genesis-supply"
	ProfileDirKey         = "profile-dir"
	ProfileFreqKey        = "profile-freq"
	ProfileMaxFilesKey    = "profile-max-files"

	ReviewPeriodKey         = "review-period"
	CommitPeriodKey         = "commit-period"
	RevealPeriodKey         = "reveal-period"
	ContributionDepositKey  = "contribution-deposit"
	MergeDepositKey         = "merge-deposit"
	ChallengeDepositKey     = "challenge-deposit"
	VoterDepositKey         = "voter-deposit"
	MaintainerPercentageKey = "maintainer-percentage"
	RewardNumeratorKey      = "reward-numerator"
	PenaltyNumeratorKey     = "penalty-numerator"
	FactorDenominatorKey    = "factor-denominator"

	envPrefix = "COLLAB"
)

func AddFlags(flags *pflag.FlagSet) {
	defaults := config.DefaultConfig()

	flags.String(ConfigFileKey, "", "Optional config file whose keys are the flag names")
	flags.String(HTTPHostKey, "127.0.0.1", "Address the API listens on")
	flags.Uint16(HTTPPortKey, 9650, "Port the API listens on")
	flags.StringSlice(AllowedOriginsKey, []string{"*"}, "Origins allowed to make cross-origin API calls")
	flags.Duration(ShutdownTimeoutKey, 10*time.Second, "Maximum time to wait for in-flight requests on shutdown")
	flags.Duration(ReadHeaderTimeoutKey, 30*time.Second, "Maximum time to read request headers")
	flags.String(CustodyKey, "", "Account holding the ledger's tokens. Derived from a fixed seed if empty")
	flags.StringSlice(GenesisMaintainersKey, nil, "Maintainers registered on a fresh database")
	flags.Uint64(GenesisSupplyKey, 1_000, "Whole tokens minted to the first genesis maintainer")
	flags.String(ProfileDirKey, "", "Directory for continuous cpu, memory and lock profiles. Profiling is off if empty")
	flags.Duration(ProfileFreqKey, 15*time.Minute, "How often a new set of profiles is started")
	flags.Int(ProfileMaxFilesKey, 5, "Number of rotated profile sets to keep")

	flags.Duration(ReviewPeriodKey, defaults.ReviewPeriod, "Review period of a merge")
	flags.Duration(CommitPeriodKey, defaults.CommitPeriod, "Commit phase of a challenge vote")
	flags.Duration(RevealPeriodKey, defaults.RevealPeriod, "Reveal phase of a challenge vote")
	flags.Uint64(ContributionDepositKey, defaults.ContributionDeposit, "Deposit held by an open pull request, in atto")
	flags.Uint64(MergeDepositKey, defaults.MergeDeposit, "Deposit held by a merge-initiating maintainer, in atto")
	flags.Uint64(ChallengeDepositKey, defaults.ChallengeDeposit, "Deposit held by a challenger, in atto")
	flags.Uint64(VoterDepositKey, defaults.VoterDeposit, "Deposit added per voter deposit call, in atto")
	flags.Uint64(MaintainerPercentageKey, defaults.MaintainerPercentage, "Share of the issue pool paid to the maintainer")
	flags.Uint64(RewardNumeratorKey, defaults.RewardNumerator, "Numerator applied to the deposit of a majority voter")
	flags.Uint64(PenaltyNumeratorKey, defaults.PenaltyNumerator, "Numerator applied to the deposit of a minority voter")
	flags.Uint64(FactorDenominatorKey, defaults.FactorDenominator, "Denominator of the check-in factors")
}

type Config struct {
	HTTPAddress       string
	AllowedOrigins    []string
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration

	Custody            ids.ShortID
	GenesisMaintainers []ids.ShortID
	GenesisSupply      uint64

	ProfileDir      string
	ProfileFreq     time.Duration
	ProfileMaxFiles int

	Protocol config.Config
}

// ParseFlags resolves every setting from, in order of precedence, the
// command line, COLLAB_* environment variables and the config file.
func ParseFlags(flags *pflag.FlagSet, args []string) (*Config, error) {
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString(ConfigFileKey); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	custody, err := parseCustody(v.GetString(CustodyKey))
	if err != nil {
		return nil, err
	}

	var maintainers []ids.ShortID
	for _, addr := range v.GetStringSlice(GenesisMaintainersKey) {
		maintainer, err := ids.ShortFromString(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid genesis maintainer %q: %w", addr, err)
		}
		maintainers = append(maintainers, maintainer)
	}

	c := &Config{
		HTTPAddress:       net.JoinHostPort(v.GetString(HTTPHostKey), strconv.FormatUint(uint64(v.GetUint16(HTTPPortKey)), 10)),
		AllowedOrigins:    v.GetStringSlice(AllowedOriginsKey),
		ShutdownTimeout:   v.GetDuration(ShutdownTimeoutKey),
		ReadHeaderTimeout: v.GetDuration(ReadHeaderTimeoutKey),

		Custody:            custody,
		GenesisMaintainers: maintainers,
		GenesisSupply:      v.GetUint64(GenesisSupplyKey),

		ProfileDir:      v.GetString(ProfileDirKey),
		ProfileFreq:     v.GetDuration(ProfileFreqKey),
		ProfileMaxFiles: v.GetInt(ProfileMaxFilesKey),

		Protocol: config.Config{
			ReviewPeriod:         v.GetDuration(ReviewPeriodKey),
			CommitPeriod:         v.GetDuration(CommitPeriodKey),
			RevealPeriod:         v.GetDuration(RevealPeriodKey),
			ContributionDeposit:  v.GetUint64(ContributionDepositKey),
			MergeDeposit:         v.GetUint64(MergeDepositKey),
			ChallengeDeposit:     v.GetUint64(ChallengeDepositKey),
			VoterDeposit:         v.GetUint64(VoterDepositKey),
			MaintainerPercentage: v.GetUint64(MaintainerPercentageKey),
			RewardNumerator:      v.GetUint64(RewardNumeratorKey),
			PenaltyNumerator:     v.GetUint64(PenaltyNumeratorKey),
			FactorDenominator:    v.GetUint64(FactorDenominatorKey),
		},
	}
	if err := c.Protocol.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// parseCustody parses addr, or derives the default custody account from a
// fixed seed when addr is empty.
func parseCustody(addr string) (ids.ShortID, error) {
	if addr != "" {
		custody, err := ids.ShortFromString(addr)
		if err != nil {
			return ids.ShortEmpty, fmt.Errorf("invalid custody address %q: %w", addr, err)
		}
		return custody, nil
	}

	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte("collab.custody"))
	return ids.ToShortID(h.Sum(nil)[:len(ids.ShortEmpty)])
}
