package blog

import (
	"testing"

	"github.com/olegiv/wpbridge/internal/model"
)

func TestSettingsFromMap(t *testing.T) {
	defaults := Settings{SourceURL: "https://default.test/wp-json/wp/v2", PerPage: 6, DefaultAuthor: "Team"}

	got := SettingsFromMap(map[string]string{
		model.SettingBlogSourceURL:          "https://blog.example.com/wp-json/wp/v2",
		model.SettingBlogPerPage:            "9",
		model.SettingBlogFeaturedCategoryID: "4",
		model.SettingBlogFeaturedTagID:      "12",
		model.SettingBlogDefaultAuthor:      "  Studio  ",
		model.SettingBlogImageSize:          "medium_large",
		"theme.primary_color":               "#112233",
	}, defaults)

	want := Settings{
		SourceURL:          "https://blog.example.com/wp-json/wp/v2",
		PerPage:            9,
		FeaturedCategoryID: 4,
		FeaturedTagID:      12,
		DefaultAuthor:      "Studio",
		ImageSize:          "medium_large",
	}
	if got != want {
		t.Errorf("SettingsFromMap() = %+v, want %+v", got, want)
	}
}

func TestSettingsFromMap_InvalidValuesIgnored(t *testing.T) {
	defaults := Settings{SourceURL: "https://default.test", PerPage: 6}

	got := SettingsFromMap(map[string]string{
		model.SettingBlogSourceURL:          "not a url",
		model.SettingBlogPerPage:            "1000",
		model.SettingBlogFeaturedCategoryID: "-3",
		model.SettingBlogFeaturedTagID:      "x",
	}, defaults)

	if got != defaults {
		t.Errorf("SettingsFromMap() = %+v, want defaults %+v", got, defaults)
	}
}
