// Package views renders the coach pages as templ components.
package views

import (
	"context"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	appI18n "github.com/pavelanni/examcreator/internal/i18n"
	"github.com/pavelanni/examcreator/internal/model"
)

// ExamCreationPath is the channel list page of a class.
func ExamCreationPath(classID string) string {
	return "/coach/" + url.PathEscape(classID) + "/exams/new"
}

// TopicPath is the topic page of a class.
func TopicPath(classID, topicID string) string {
	return ExamCreationPath(classID) + "/topic/" + url.PathEscape(topicID)
}

// PreviewPath is the exercise preview page of a class.
func PreviewPath(classID, contentID string) string {
	return ExamCreationPath(classID) + "/preview/" + url.PathEscape(contentID)
}

// SearchPath is the search page of a class.
func SearchPath(classID, term, channel string) string {
	path := ExamCreationPath(classID) + "/search/" + url.PathEscape(term)
	if channel != "" {
		path += "?channel=" + url.QueryEscape(channel)
	}
	return path
}

// SelectionPath is the form target that toggles an exercise in or out of
// the class selection.
func SelectionPath(classID, exerciseID string, selected bool) string {
	action := "/select/"
	if selected {
		action = "/deselect/"
	}
	return ExamCreationPath(classID) + action + url.PathEscape(exerciseID)
}

// ToolbarPath resolves a toolbar route to a link target.
func ToolbarPath(classID string, route model.ToolbarRoute) string {
	switch route.Name {
	case model.PageExams:
		return "/coach"
	case model.PageExamCreationRoot:
		return ExamCreationPath(classID)
	case model.PageExamCreationTopic:
		if id := route.Params["topicId"]; id != "" {
			return TopicPath(classID, id)
		}
		return ExamCreationPath(classID)
	}
	return ""
}

func t(ctx context.Context, id string) string { return appI18n.T(ctx, id) }

// appURL prefixes an application path with the deployment base path.
func appURL(ctx context.Context, path string) templ.SafeURL {
	return templ.URL(model.BasePathFromContext(ctx) + path)
}

func pageTitle(ctx context.Context, snap model.PageSnapshot) string {
	title := t(ctx, "NewExam")
	if snap.Class != nil {
		title = snap.Class.Name + " · " + title
	}
	return title
}

func completionRule(cd model.MasteryModel) string {
	if cd.M > 0 && cd.N > 0 {
		return cd.Type + " (" + strconv.Itoa(cd.M) + "/" + strconv.Itoa(cd.N) + ")"
	}
	return cd.Type
}

func userTogglePath(id int64) string {
	return "/admin/users/" + strconv.FormatInt(id, 10) + "/toggle"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
