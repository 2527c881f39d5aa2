package text_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/walteh/webbind/pkg/text"
)

func ExampleSimpleTextReplacer_ReplaceText() {
	replacer := text.NewSimpleTextReplacer()

	content := strings.NewReader(`.hero { background: url("public/hero.jpg") } .logo { background: url(public/logo.svg) }`)

	result, err := replacer.ReplaceText(context.Background(), content, []text.ReplacementRule{text.PublicToImg})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("Modified: %s\n", result.ModifiedContent)
	fmt.Printf("Changes: %d\n", result.ReplacementCount)
	fmt.Printf("Was Modified: %v\n", result.WasModified)

	// Output:
	// Modified: .hero { background: url("img/hero.jpg") } .logo { background: url(img/logo.svg) }
	// Changes: 2
	// Was Modified: true
}

func ExampleReplacementRule_Matches() {
	css := text.PublicToImg.WithGlob("**/*.css")

	fmt.Println(css.Matches("style.css"))
	fmt.Println(css.Matches("assets/Theme.CSS"))
	fmt.Println(css.Matches("index.html"))

	// Output:
	// true
	// true
	// false
}
