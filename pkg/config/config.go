package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config carries every deployment-specific value. It is loaded once at
// startup and injected into collaborators at construction time; core
// logic never reads ambient process state.
type Config struct {
	Reqs struct {
		CreateRequestType         string `yaml:"create_req_type"`
		UpdateRequestType         string `yaml:"update_req_type"`
		UpdateStatusRequestType   string `yaml:"update_status_req_type"`
		DeleteSurveyRequestType   string `yaml:"delete_survey_req_type"`
		SubmitResponseRequestType string `yaml:"submit_response_req_type"`
	} `yaml:"reqs"`
	Urls struct {
		Redis    string `yaml:"redis"    env:"REDIS_URL"`
		Rabbitmq string `yaml:"rabbitmq" env:"RABBITMQ_URL"`
		Database string `yaml:"database" env:"DATABASE_DSN"`
	} `yaml:"urls"`
	// DBDriver selects the gorm driver: "sqlite" or "mysql".
	DBDriver string `yaml:"db_driver" env:"DB_DRIVER" envDefault:"sqlite"`
	Exchange struct {
		Request string `yaml:"request"`
		Output  string `yaml:"output"`
	} `yaml:"exchange"`
	Queue struct {
		Request string `yaml:"request"`
		Output  string `yaml:"output"`
	} `yaml:"queue"`
	HealthPort string `yaml:"health_port" env:"HEALTH_PORT" envDefault:":8081"`
}

// Init loads the YAML file at path, then applies environment
// overrides. A .env file is honored when present.
func Init(path string) (*Config, error) {
	var cfg Config

	_ = godotenv.Load()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error open file: %v", err)
	}

	defer file.Close()

	if err = yaml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode error: %v", err)
	}

	if err = env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("env override error: %v", err)
	}

	return &cfg, nil
}
