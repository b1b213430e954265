package cmd

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var replacer = strings.NewReplacer(".", "_", "-", "_")

type argType interface {
	string | bool | int | int64 | time.Duration | []string
}

func envName[T argType](cfg boundEnvVar[T]) string {
	if cfg.Env != nil {
		return *cfg.Env
	}
	return strings.ToUpper(replacer.Replace(cfg.Name))
}

func bindEnvMap[T argType](cmd *cobra.Command, m map[*T]boundEnvVar[T]) {
	for v, cfg := range m {
		env := envName(cfg)
		desc := fmt.Sprintf("[%s] %s", env, cfg.Description)
		_, envFound := os.LookupEnv(env)

		switch vt := any(v).(type) {
		case *string:
			def := any(*v).(string)
			if vf, found := os.LookupEnv(env); found {
				def = vf
			}
			if cfg.Short == nil {
				cmd.PersistentFlags().StringVar(vt, cfg.Name, def, desc)
			} else {
				cmd.PersistentFlags().StringVarP(vt, cfg.Name, *cfg.Short, def, desc)
			}
		case *bool:
			def := any(*v).(bool)
			if envFound {
				def = viper.GetBool(env)
			}
			if cfg.Short == nil {
				cmd.PersistentFlags().BoolVar(vt, cfg.Name, def, desc)
			} else {
				cmd.PersistentFlags().BoolVarP(vt, cfg.Name, *cfg.Short, def, desc)
			}
		case *int:
			def := any(*v).(int)
			if cfg.Short == nil {
				cmd.PersistentFlags().CountVar(vt, cfg.Name, desc)
			} else {
				cmd.PersistentFlags().CountVarP(vt, cfg.Name, *cfg.Short, desc)
			}
			_ = cmd.PersistentFlags().Lookup(cfg.Name).Value.Set(strconv.Itoa(def))
		case *int64:
			def := any(*v).(int64)
			if envFound {
				def = viper.GetInt64(env)
			}
			if cfg.Short == nil {
				cmd.PersistentFlags().Int64Var(vt, cfg.Name, def, desc)
			} else {
				cmd.PersistentFlags().Int64VarP(vt, cfg.Name, *cfg.Short, def, desc)
			}
		case *time.Duration:
			def := any(*v).(time.Duration)
			if envFound {
				def = viper.GetDuration(env)
			}
			if cfg.Short == nil {
				cmd.PersistentFlags().DurationVar(vt, cfg.Name, def, desc)
			} else {
				cmd.PersistentFlags().DurationVarP(vt, cfg.Name, *cfg.Short, def, desc)
			}
		case *[]string:
			def := any(*v).([]string)
			if envFound {
				def = viper.GetStringSlice(env)
			}
			if cfg.Short == nil {
				cmd.PersistentFlags().StringSliceVar(vt, cfg.Name, def, desc)
			} else {
				cmd.PersistentFlags().StringSliceVarP(vt, cfg.Name, *cfg.Short, def, desc)
			}
		default:
			log.Panicf("command-args parsing error: unhandled default case for type %T", vt)
		}

		_ = viper.BindPFlag(cfg.Name, cmd.PersistentFlags().Lookup(cfg.Name))
		_ = viper.BindEnv(cfg.Name, env)

		if cfg.Hidden {
			_ = cmd.PersistentFlags().MarkHidden(cfg.Name)
		}
	}
}
