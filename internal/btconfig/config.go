package btconfig

// Config is the full backtest configuration loaded from YAML
// ⭐ SSOT: 백테스트 파라미터는 이 구조체를 통해서만 전달
type Config struct {
	Basic    BasicConfig    `yaml:"basic"`
	Strategy StrategyConfig `yaml:"strategy"`
	Output   OutputConfig   `yaml:"output"`
	Display  DisplayConfig  `yaml:"display"`
}

// BasicConfig holds file-system locations
type BasicConfig struct {
	SignalFile string `yaml:"signal_file"`
	DataDir    string `yaml:"data_dir"`
	SaveDir    string `yaml:"save_dir"`
}

// StrategyConfig holds the simulation parameters
type StrategyConfig struct {
	// RankN: 매 리밸런스마다 상위 N개 종목 선택
	RankN int `yaml:"rank_n"`

	// RebalanceFrequency: 슬리브당 리밸런스 주기 (거래일 수)
	RebalanceFrequency int `yaml:"rebalance_frequency"`

	// PortfolioCount: 동시 운용 슬리브 수 (진입 시차 분산)
	PortfolioCount int `yaml:"portfolio_count"`

	// Benchmark index code, e.g. "000985.XSHG"
	Benchmark string `yaml:"benchmark"`

	// InitialCapital: 전체 계좌 초기 자본 (슬리브별 균등 분할)
	InitialCapital float64 `yaml:"initial_capital"`

	// CashReserve: 슬리브당 현금 보유 비율 [0,1)
	CashReserve float64 `yaml:"cash_reserve"`

	// LotSize: 주문 수량 단위 (A주 기본 100)
	LotSize int64 `yaml:"lot_size"`

	// Weighting scheme: "equal" or "score"
	Weighting string `yaml:"weighting"`
}

// OutputConfig controls result persistence
type OutputConfig struct {
	SaveResults bool   `yaml:"save_results"`
	OutputDir   string `yaml:"output_dir"`
}

// DisplayConfig controls console verbosity
type DisplayConfig struct {
	Verbose      bool `yaml:"verbose"`
	ShowProgress bool `yaml:"show_progress"`
}

// Default returns a config populated with the standard defaults.
// 로더는 이 값 위에 YAML 내용을 덮어씀
func Default() Config {
	return Config{
		Basic: BasicConfig{
			DataDir: "data/cache",
			SaveDir: "results",
		},
		Strategy: StrategyConfig{
			RankN:              10,
			RebalanceFrequency: 25,
			PortfolioCount:     25,
			Benchmark:          "000985.XSHG",
			InitialCapital:     10_000_000,
			CashReserve:        0.05,
			LotSize:            100,
			Weighting:          "equal",
		},
		Output: OutputConfig{
			SaveResults: true,
			OutputDir:   "results",
		},
		Display: DisplayConfig{
			Verbose:      false,
			ShowProgress: true,
		},
	}
}

// SleeveCapital returns the initial capital allocated to each sleeve
func (c *Config) SleeveCapital() float64 {
	return c.Strategy.InitialCapital / float64(c.Strategy.PortfolioCount)
}

// InvestableFraction returns the fraction of sleeve equity deployed at rebalance
func (c *Config) InvestableFraction() float64 {
	return 1.0 - c.Strategy.CashReserve
}
