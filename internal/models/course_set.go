package models

import "slices"

// CourseSet множество идентификаторов курсов. Нулевое значение означает пустое множество.
type CourseSet map[string]struct{}

// NewCourseSet строит множество из списка идентификаторов, пустые строки пропускаются.
func NewCourseSet(ids ...string) CourseSet {
	set := make(CourseSet, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}

// Has проверяет принадлежность курса множеству.
func (s CourseSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs возвращает отсортированный список идентификаторов.
func (s CourseSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// AllowList явный список разрешённых курсов.
//
// Возможны два состояния: Unrestricted (список не задан, решение принимают
// правила подписки) и Restricted (доступ только к курсам из списка).
// Пустой список на входе всегда означает Unrestricted, а не "ничего не разрешено".
type AllowList struct {
	courses CourseSet
}

// Unrestricted возвращает отсутствующий allow-list.
func Unrestricted() AllowList {
	return AllowList{}
}

// RestrictTo возвращает allow-list из переданных курсов.
// Без непустых идентификаторов результат эквивалентен Unrestricted().
func RestrictTo(ids ...string) AllowList {
	set := NewCourseSet(ids...)
	if len(set) == 0 {
		return AllowList{}
	}
	return AllowList{courses: set}
}

// Restricted сообщает, задан ли явный список.
func (a AllowList) Restricted() bool {
	return len(a.courses) > 0
}

// Allows проверяет членство курса в списке. Для Unrestricted всегда false:
// вызывающая сторона обязана сначала проверить Restricted.
func (a AllowList) Allows(courseID string) bool {
	return a.courses.Has(courseID)
}

// IDs возвращает разрешённые курсы в отсортированном виде, nil для Unrestricted.
func (a AllowList) IDs() []string {
	if !a.Restricted() {
		return nil
	}
	return a.courses.IDs()
}
