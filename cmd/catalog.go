package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/gomutants/internal/domain"
	m "gooze.dev/pkg/gomutants/internal/model"
)

// catalogFlagKeys maps the catalog filter flags to their config keys.
var catalogFlagKeys = map[string]string{
	runGenreFlagName:       genresEnableKey,
	runSkipGenreFlagName:   genresDisableKey,
	runExamineFlagName:     examineConfigKey,
	runExcludeGlobFlagName: excludeGlobsConfigKey,
	runExamineReFlagName:   examineNamesConfigKey,
	runExcludeReFlagName:   excludeNamesConfigKey,
}

// configureCatalogFlags registers the filters shared by run and list.
func configureCatalogFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringSlice(runGenreFlagName, nil, "only generate mutants of these genres (can be repeated)")
	flags.StringSlice(runSkipGenreFlagName, nil, "never generate mutants of these genres (can be repeated)")
	flags.StringArray(runExamineFlagName, nil, "only mutate files matching glob (can be repeated)")
	flags.StringArray(runExcludeGlobFlagName, nil, "never mutate files matching glob (can be repeated)")
	flags.StringArray(runExamineReFlagName, nil, "only test mutants whose name matches regex (can be repeated)")
	flags.StringArray(runExcludeReFlagName, nil, "skip mutants whose name matches regex (can be repeated)")
}

func parseFamilies(names []string) ([]m.Family, error) {
	families := make([]m.Family, 0, len(names))

	for _, name := range names {
		family, err := m.ParseFamily(name)
		if err != nil {
			return nil, err
		}

		families = append(families, family)
	}

	return families, nil
}

// catalogArgsFromConfig assembles catalog arguments from the bound flags and
// the config file.
func catalogArgsFromConfig(args []string) (domain.CatalogArgs, error) {
	excludePaths, err := domain.CompilePatterns(viper.GetStringSlice(excludeConfigKey))
	if err != nil {
		return domain.CatalogArgs{}, fmt.Errorf("--%s: %w", excludeFlagName, err)
	}

	examineNames, err := domain.CompilePatterns(viper.GetStringSlice(examineNamesConfigKey))
	if err != nil {
		return domain.CatalogArgs{}, fmt.Errorf("--%s: %w", runExamineReFlagName, err)
	}

	excludeNames, err := domain.CompilePatterns(viper.GetStringSlice(excludeNamesConfigKey))
	if err != nil {
		return domain.CatalogArgs{}, fmt.Errorf("--%s: %w", runExcludeReFlagName, err)
	}

	enable, err := parseFamilies(viper.GetStringSlice(genresEnableKey))
	if err != nil {
		return domain.CatalogArgs{}, fmt.Errorf("--%s: %w", runGenreFlagName, err)
	}

	disable, err := parseFamilies(viper.GetStringSlice(genresDisableKey))
	if err != nil {
		return domain.CatalogArgs{}, fmt.Errorf("--%s: %w", runSkipGenreFlagName, err)
	}

	catalogArgs := domain.CatalogArgs{
		Paths: parsePaths(args),
		Filters: domain.Filters{
			ExcludePaths: excludePaths,
			ExamineGlobs: viper.GetStringSlice(examineConfigKey),
			ExcludeGlobs: viper.GetStringSlice(excludeGlobsConfigKey),
			ExamineNames: examineNames,
			ExcludeNames: excludeNames,
			Enable:       enable,
			Disable:      disable,
		},
	}

	if output, err := filepath.Abs(viper.GetString(outputFlagName)); err == nil {
		catalogArgs.SkipDirs = []m.Path{m.Path(output)}
	}

	return catalogArgs, nil
}
