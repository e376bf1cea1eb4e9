package cli

import "github.com/spf13/cobra"

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for cspdemo.

To load completions:

Bash:
  $ source <(cspdemo completion bash)
  # Or persist across sessions:
  $ cspdemo completion bash > /etc/bash_completion.d/cspdemo

Zsh:
  $ source <(cspdemo completion zsh)
  # Or persist:
  $ cspdemo completion zsh > "${fpath[1]}/_cspdemo"

Fish:
  $ cspdemo completion fish | source
  # Or persist:
  $ cspdemo completion fish > ~/.config/fish/completions/cspdemo.fish

PowerShell:
  PS> cspdemo completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletionV2(cmd.OutOrStdout(), true)
		case "zsh":
			return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
