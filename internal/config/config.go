// Package config holds the tunable protocol settings for the design
// pipeline. The acceptance loop treats them as an opaque bag and passes them
// through to the executor unexamined.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Protocol holds all tunable knobs for the predictor and the downstream
// redesign/relaxation stages. No field is mutated by the loop.
type Protocol struct {
	Design        DesignConfig        `toml:"design"`
	Loss          LossConfig          `toml:"loss"`
	MPNN          MPNNConfig          `toml:"mpnn"`
	Recycles      RecyclesConfig      `toml:"recycles"`
	Files         FilesConfig         `toml:"files"`
	Limits        LimitsConfig        `toml:"limits"`
	Executor      ExecutorConfig      `toml:"executor"`
	Tools         ToolsConfig         `toml:"tools"`
	Notifications NotificationsConfig `toml:"notifications"`
}

// NotificationsConfig holds run-completion notification settings
type NotificationsConfig struct {
	Desktop      bool   `toml:"desktop"`
	SlackWebhook string `toml:"slack_webhook"`
}

// DesignConfig holds hallucination protocol settings
type DesignConfig struct {
	Protocol            string `toml:"protocol"`
	InterfaceProtocol   string `toml:"interface_protocol"`
	TemplateProtocol    string `toml:"template_protocol"`
	OmitAAs             string `toml:"omit_aas"`
	ForceRejectAA       bool   `toml:"force_reject_aa"`
	UseMultimerDesign   bool   `toml:"use_multimer_design"`
	DesignAlgorithm     string `toml:"design_algorithm"`
	SampleModels        bool   `toml:"sample_models"`
	SoftIterations      int    `toml:"soft_iterations"`
	TemporaryIterations int    `toml:"temporary_iterations"`
	HardIterations      int    `toml:"hard_iterations"`
	GreedyIterations    int    `toml:"greedy_iterations"`
	GreedyPercentage    int    `toml:"greedy_percentage"`
}

// LossConfig holds loss weights and contact thresholds
type LossConfig struct {
	WeightPLDDT            float64 `toml:"weight_plddt"`
	WeightPAEIntra         float64 `toml:"weight_pae_intra"`
	WeightPAEInter         float64 `toml:"weight_pae_inter"`
	WeightConIntra         float64 `toml:"weight_con_intra"`
	WeightConInter         float64 `toml:"weight_con_inter"`
	WeightHelicity         float64 `toml:"weight_helicity"`
	WeightIPTM             float64 `toml:"weight_iptm"`
	WeightRG               float64 `toml:"weight_rg"`
	WeightTerminiLoss      float64 `toml:"weight_termini_loss"`
	RandomHelicity         bool    `toml:"random_helicity"`
	UseIPTMLoss            bool    `toml:"use_iptm_loss"`
	UseRGLoss              bool    `toml:"use_rg_loss"`
	UseTerminiDistanceLoss bool    `toml:"use_termini_distance_loss"`
	IntraContactDistance   float64 `toml:"intra_contact_distance"`
	InterContactDistance   float64 `toml:"inter_contact_distance"`
	IntraContactNumber     int     `toml:"intra_contact_number"`
	InterContactNumber     int     `toml:"inter_contact_number"`
}

// MPNNConfig holds sequence redesign settings
type MPNNConfig struct {
	Enable        bool    `toml:"enable"`
	FixInterface  bool    `toml:"fix_interface"`
	NumSeqs       int     `toml:"num_seqs"`
	MaxSequences  int     `toml:"max_sequences"`
	SamplingTemp  float64 `toml:"sampling_temp"`
	BackboneNoise float64 `toml:"backbone_noise"`
	ModelPath     string  `toml:"model_path"`
	Weights       string  `toml:"weights"`
	SaveFasta     bool    `toml:"save_fasta"`
}

// RecyclesConfig holds AlphaFold recycling counts
type RecyclesConfig struct {
	Design     int `toml:"design"`
	Validation int `toml:"validation"`
}

// FilesConfig holds artifact retention flags
type FilesConfig struct {
	SaveAnimations            bool `toml:"save_animations"`
	SaveTrajectoryPlots       bool `toml:"save_trajectory_plots"`
	RemoveUnrelaxedTrajectory bool `toml:"remove_unrelaxed_trajectory"`
	RemoveUnrelaxedComplex    bool `toml:"remove_unrelaxed_complex"`
	RemoveBinderMonomer       bool `toml:"remove_binder_monomer"`
	ZipAnimations             bool `toml:"zip_animations"`
	ZipPlots                  bool `toml:"zip_plots"`
	SaveTrajectoryPickle      bool `toml:"save_trajectory_pickle"`
}

// LimitsConfig holds loop safety limits
type LimitsConfig struct {
	MaxTrajectories      int     `toml:"max_trajectories"`
	EnableRejectionCheck bool    `toml:"enable_rejection_check"`
	AcceptanceRate       float64 `toml:"acceptance_rate"`
	StartMonitoring      int     `toml:"start_monitoring"`
}

// ExecutorConfig selects and configures the trajectory executor
type ExecutorConfig struct {
	Mode      string `toml:"mode"` // "local" or "remote"
	Command   string `toml:"command"`
	RemoteURL string `toml:"remote_url"`
	Debug     bool   `toml:"debug"`
}

// ToolsConfig holds paths to required external tools
type ToolsConfig struct {
	AFParamsDir    string `toml:"af_params_dir"`
	DSSPPath       string `toml:"dssp_path"`
	DAlphaBallPath string `toml:"dalphaball_path"`
}

// Default returns a Protocol with the standard defaults
func Default() *Protocol {
	return &Protocol{
		Design: DesignConfig{
			Protocol:            "Default",
			InterfaceProtocol:   "AlphaFold2",
			TemplateProtocol:    "Default",
			OmitAAs:             "C",
			UseMultimerDesign:   true,
			DesignAlgorithm:     "4stage",
			SampleModels:        true,
			SoftIterations:      75,
			TemporaryIterations: 45,
			HardIterations:      5,
			GreedyIterations:    15,
			GreedyPercentage:    1,
		},
		Loss: LossConfig{
			WeightPLDDT:          0.1,
			WeightPAEIntra:       0.4,
			WeightPAEInter:       0.1,
			WeightConIntra:       1.0,
			WeightConInter:       1.0,
			WeightHelicity:       -0.3,
			WeightIPTM:           0.05,
			WeightRG:             0.3,
			WeightTerminiLoss:    0.1,
			UseIPTMLoss:          true,
			UseRGLoss:            true,
			IntraContactDistance: 14.0,
			InterContactDistance: 20.0,
			IntraContactNumber:   2,
			InterContactNumber:   2,
		},
		MPNN: MPNNConfig{
			Enable:       true,
			FixInterface: true,
			NumSeqs:      20,
			MaxSequences: 2,
			SamplingTemp: 0.1,
			ModelPath:    "v_48_020",
			Weights:      "soluble",
		},
		Recycles: RecyclesConfig{
			Design:     1,
			Validation: 3,
		},
		Files: FilesConfig{
			SaveAnimations:            true,
			SaveTrajectoryPlots:       true,
			RemoveUnrelaxedTrajectory: true,
			RemoveUnrelaxedComplex:    true,
			RemoveBinderMonomer:       true,
			ZipAnimations:             true,
			ZipPlots:                  true,
		},
		Limits: LimitsConfig{
			MaxTrajectories:      1000,
			EnableRejectionCheck: true,
			AcceptanceRate:       0.01,
			StartMonitoring:      600,
		},
		Executor: ExecutorConfig{
			Mode: "local",
		},
	}
}

// Load reads protocol settings from a TOML file, falling back to defaults
// when the file does not exist.
func Load(path string) (*Protocol, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Expand paths
	cfg.Executor.Command = ExpandPath(cfg.Executor.Command)
	cfg.Tools.AFParamsDir = ExpandPath(cfg.Tools.AFParamsDir)
	cfg.Tools.DSSPPath = ExpandPath(cfg.Tools.DSSPPath)
	cfg.Tools.DAlphaBallPath = ExpandPath(cfg.Tools.DAlphaBallPath)

	return cfg, nil
}

// Save writes the protocol to a TOML file, creating parent directories
// as needed.
func (p *Protocol) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := toml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RequiredTools returns the external tool paths that must be present and
// executable before a run may start. Unset paths are not required.
func (p *Protocol) RequiredTools() []string {
	var tools []string
	if p.Executor.Mode == "local" && p.Executor.Command != "" {
		tools = append(tools, p.Executor.Command)
	}
	if p.Tools.DSSPPath != "" {
		tools = append(tools, p.Tools.DSSPPath)
	}
	if p.Tools.DAlphaBallPath != "" {
		tools = append(tools, p.Tools.DAlphaBallPath)
	}
	return tools
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default protocol settings location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "bindcraft", "protocol.toml")
}
